package walletclient

import "crypto/tls"

// standardTLSConfig is the minimum TLS policy this client enforces when
// talking to the wallet/issuance services.
func standardTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:               tls.VersionTLS12,
		CurvePreferences:         []tls.CurveID{tls.CurveP521, tls.CurveP384, tls.CurveP256},
		PreferServerCipherSuites: true,
	}
}
