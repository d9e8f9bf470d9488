package server

type Config struct {
	Bind    string
	Static  string
	SSLCert string
	SSLKey  string
	Proxy   bool
	PProf   bool
	Cors    bool
}

func (c Config) withDefaultValues() Config {
	if c.Bind == "" {
		c.Bind = "0.0.0.0:3000"
	}
	return c
}
