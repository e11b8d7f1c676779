package environment

import "os"

// Environment provides access to process environment variables.
type Environment struct {
}

// New creates an Environment.
func New() Environment {
	return Environment{}
}

// LookupEnv returns the value of the variable named by the key, if set.
func (env Environment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}
