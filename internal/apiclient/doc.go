/*
Package apiclient is the HTTP layer between lmscli and the learning-platform
REST API.

# Overview

Every call goes through a Client, which adds:
  - Bearer token injection (authenticated instances only)
  - Accept-Language from the process locale
  - A per-request X-Request-Id
  - Envelope unwrapping and error normalization
  - Transparent access-token refresh with request queuing

# Envelope

The backend wraps every JSON payload as

	{"code": 200, "message": "OK", "data": {...}}

Codes 200 and 201 are success; Data is decoded into the caller's value. Any
other code becomes an *APIError whose Error() is the server message verbatim.
Blob requests (Request.Blob) and non-JSON responses skip unwrapping.

# Errors

  - *TransportError: network failure, unreadable body, or a non-2xx status
    without an envelope
  - *APIError: envelope code outside the success set
  - ErrUnauthorized: HTTP 401 or envelope code 401; handled by the refresh
    protocol on authenticated instances and only surfaced when it cannot be
    recovered
  - *RefreshError: the refresh exchange failed; matches ErrSessionExpired and
    means the session was cleared

# Token Refresh

Authenticated instances run a two-state protocol (Idle, Refreshing). The
first request that fails with ErrUnauthorized moves the client to
Refreshing and starts exactly one exchange against /auth/refreshToken.
Requests that fail, or are issued, while Refreshing are appended to a FIFO
queue. On success the new tokens are persisted and the queue is replayed in
arrival order with the new access token. On failure the session is cleared,
every queued request is rejected with *RefreshError, and the
session-expired hook runs.

A queued request whose context is cancelled is dropped from the queue.

# File Transfer

Upload, UploadStream and Download attach the bearer token, honor context
cancellation and report progress, but do not take part in refresh queuing.

# Example Usage

	store := session.NewManager(kv)
	client, err := apiclient.New(apiclient.Config{
		BaseURL: "https://lms.example.com/api/v1",
		Timeout: 30 * time.Second,
	}, apiclient.WithAuth(store), apiclient.WithLocale(store))
	if err != nil {
		return err
	}

	var profile apiclient.Profile
	if err := client.Get(ctx, "/auth/me", nil, &profile); err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			fmt.Println(apiErr.Message)
		}
		return err
	}

# Thread Safety

A Client is safe for concurrent use. The refresh state and queue are private
to the client.
*/
package apiclient
