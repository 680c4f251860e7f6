package currenturl

// ProductionDeployment is the deployment name that switches constructed URLs
// to https.
const ProductionDeployment = "production"

// Environment describes the deployment the process is running in.
type Environment struct {
	// Deployment is the name of the deployment, e.g. "production", "preview"
	// or "development". Populated from VERCEL_ENV by default.
	Deployment string

	// PlatformHost is the hostname assigned by the hosting platform, without a
	// scheme. Populated from VERCEL_URL by default. When set it takes
	// precedence over the request's host header.
	PlatformHost string
}

// IsProduction reports whether this is the production deployment.
func (e Environment) IsProduction() bool {
	return e.Deployment == ProductionDeployment
}

// Scheme returns the scheme prefix, including "://", used when turning a
// relative request URL into an absolute one.
func (e Environment) Scheme() string {
	if e.IsProduction() {
		return "https://"
	}
	return "http://"
}

// EnvironmentFromConfig reads the environment from Config.
func EnvironmentFromConfig() Environment {
	return Environment{
		Deployment:   Config.String("currentURL.deploymentEnv"),
		PlatformHost: Config.String("currentURL.platformHost"),
	}
}
