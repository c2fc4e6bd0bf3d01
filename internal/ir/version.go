package ir

// Version constants for the program representation and engine.
const (
	// IRVersion is the rule/atom representation version.
	IRVersion = "1"

	// EngineVersion is the hexeval engine version.
	EngineVersion = "0.1.0"
)
