package apperr

// ErrPersistence reports a failure of the durable store. The operation that
// hit it did not take effect and can be retried.
var ErrPersistence = &Error{
	Message: "saving to the database failed, please try again",
}
