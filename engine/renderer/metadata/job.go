package metadata

import "errors"

// ErrJobQueueFull is returned by non-blocking submits while every queue slot is taken.
var ErrJobQueueFull = errors.New("job queue is full")

/** Definition for jobs. Returns the result handed to OnComplete. */
type JobStart func(params interface{}) (interface{}, error)

/** Definition for completion of a job. */
type JobOnComplete func(result interface{})

/** Definition for failure of a job. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked with the result when the job succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked with the error when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Data passed to OnStart. */
	InputParams interface{}
}
