package ytautopub

import (
	"ytautopub/browser"
	"ytautopub/hub"
	"ytautopub/retry"
	"ytautopub/vault"
	"ytautopub/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytautopub.ErrNoClientSecret) {
//		fmt.Println("Client secret missing; drop ytcredentials.json in the working directory")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var upErr *ytautopub.UploadError
//	if errors.As(err, &upErr) {
//		fmt.Printf("Upload of %s failed at %s stage: %v\n", upErr.Path, upErr.Stage, upErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// UploadError wraps errors during a video or thumbnail upload.
	UploadError = youtube.UploadError
	// DecryptError indicates an encrypted credential blob failed verification.
	DecryptError = vault.DecryptError
	// StoreError wraps errors during vault fetch and persist operations.
	StoreError = vault.StoreError
	// HTTPError carries the status and body of a failed hub request.
	HTTPError = hub.HTTPError
	// RateLimitError indicates the hub throttled the request.
	RateLimitError = hub.RateLimitError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNoClientSecret indicates no OAuth client descriptor was found
	// locally or in the hub.
	ErrNoClientSecret = youtube.ErrNoClientSecret

	// ErrNotFound indicates a credential object is absent from the vault.
	ErrNotFound = vault.ErrNotFound
	// ErrHubObjectNotFound indicates the hub repository has no such object.
	ErrHubObjectNotFound = hub.ErrNotFound

	// Browser automation errors
	// ErrAutomationTimeout indicates the login flow did not complete in time.
	ErrAutomationTimeout = browser.ErrAutomationTimeout
	// ErrTwoFactorRequired indicates a pending two-factor challenge was not
	// satisfied before the wait deadline.
	ErrTwoFactorRequired = browser.ErrTwoFactorRequired
	// ErrCredentialsMissing indicates the Google account email or password
	// is not configured.
	ErrCredentialsMissing = browser.ErrCredentialsMissing
)

// IsRetryable determines if an error should be retried.
// Context cancellation and deadline errors are permanent.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
