package bridge

// Source tags the originator of a command envelope.
type Source string

const (
	SourceWebGUI Source = "web_gui"
	SourceCLI    Source = "cli"
)
