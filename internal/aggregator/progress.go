package aggregator

// ProgressReporter provides callbacks for reporting aggregation progress.
// Implementations can display progress bars, log messages, or remain silent.
// Calls are serialized by the Aggregator even when files are parsed in parallel.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file selection begins.
	OnDiscoveryStart(root string)

	// OnDiscoveryComplete is called with the number of selected files.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before parsing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is parsed.
	OnFileProcessed(fileName string)

	// OnComplete is called when every file parsed successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart(root string)         {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)        {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)      {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)              {}
