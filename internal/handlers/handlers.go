package handlers

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/paths"
)

// SingleAssembly returns the single-assembly handlers in registration order.
func SingleAssembly(resolver *paths.Resolver, logger *log.Logger) []Handler {
	return []Handler{
		NewBigWigHandler(resolver, logger),
		NewBAMHandler(resolver, logger),
		NewCRAMHandler(resolver, logger),
		NewVCFHandler(resolver, logger),
		NewBEDHandler(resolver, logger),
		NewGTFHandler(resolver, logger),
		NewGFFHandler(resolver, logger),
		NewComboHandler(resolver, logger),
		NewAutoHandler(resolver, logger),
	}
}

// DualAssembly returns the synteny handlers in registration order.
func DualAssembly(resolver *paths.Resolver, logger *log.Logger) []Handler {
	return []Handler{
		NewPAFHandler(resolver, logger),
		NewPIFHandler(resolver, logger),
		NewMAFHandler(resolver, logger),
		NewMCScanHandler(resolver, logger),
	}
}
