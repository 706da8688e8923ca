package executor

// Runner drives a stored DLP job through its lifecycle.
type Runner interface {
	// Run executes the job with the given resource name, updating its
	// state in the store until it is DONE, FAILED or CANCELED.
	// This method is intended to be called in a goroutine.
	Run(name string)

	// Cancel stops a pending or running job.
	Cancel(name string) error
}
