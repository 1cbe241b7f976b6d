package config

// Source indicates where a configuration value came from.
type Source string

// Configuration sources, lowest precedence first.
const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global" // ~/.config/reviewflow/config.yaml
	SourceLocal   Source = "local"  // .reviewflow.yaml in the git root
	SourceEnv     Source = "env"    // REVIEWFLOW_* variables
	SourceFlag    Source = "flag"
)
