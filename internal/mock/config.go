package mock

// Config is the tunable record backing the package-info and reflection
// mocks: a single value carried on the analysis context and passed to every
// hook, rather than a package-level mutable record.
type Config struct {
	PackageName    string
	SignatureBytes []byte
	SDKInt         int32
	VersionCode    int32
	VersionName    string
}

// DefaultConfig returns a reasonable stand-in package identity, used when
// the caller has not supplied one.
func DefaultConfig() *Config {
	return &Config{
		PackageName:    "com.example.app",
		SignatureBytes: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		SDKInt:         33,
		VersionCode:    1,
		VersionName:    "1.0",
	}
}
