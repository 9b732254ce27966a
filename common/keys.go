package common

type httpClientKeyType struct{}

// HTTPClientKey carries an injected *http.Client through the context,
// mostly so tests can redirect outbound calls.
var HTTPClientKey httpClientKeyType
