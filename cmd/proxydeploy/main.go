// Proxydeploy is the proxy management gateway: it orchestrates the
// deployment of generated API proxies to CloudHub and hybrid runtimes on
// behalf of the API Manager.
//
// Usage:
//
//	# Start with default configuration
//	proxydeploy run
//
//	# Start with a configuration file
//	proxydeploy run --config /etc/proxydeploy/config.yaml
//
//	# Validate a configuration file
//	proxydeploy validate --config /etc/proxydeploy/config.yaml
//
//	# Show version information
//	proxydeploy version
package main

func main() {
	Execute()
}
