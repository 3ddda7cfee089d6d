package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityService                      // Service token required
	SecurityAccess                       // Access or service token required
)

// RouteSecurityConfig maps route names to their required security level.
var RouteSecurityConfig = map[string]SecurityLevel{
	"healthz": SecurityPublic,

	// Triggered by external schedulers holding a service token
	"obligations.sweep": SecurityService,

	// gRPC full method names
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,

	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityService,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityService,
}

// GetSecurityLevel returns the security level for a given route name or
// gRPC method
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to access for unknown routes
	return SecurityAccess
}
