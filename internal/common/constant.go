package common

// APIKeyHeaderName is the HTTP header used to carry the acquisitions API key
// on outbound requests, in the vendor's "apikey <value>" scheme.
const APIKeyHeaderName = "Authorization"
