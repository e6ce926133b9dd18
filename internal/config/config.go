package config

// Config carries the command-line settings of camrig.
type Config struct {
	ProjectPath string
	Mode        string
	OutputPath  string
	Format      string
	Frame       int
	Start       int
	End         int
	Step        int
	ReduceKeys  bool
	MaxError    float64
	MaxKeys     int
	Workers     int
	LogLevel    string
	Addr        string
}

// BakeSettings are the knobs a bake call reads from the command line.
type BakeSettings struct {
	ReduceKeys bool
	MaxError   float64
	MaxKeys    int
	Workers    int
}

// Bake extracts the bake knobs from the CLI config.
func (c *Config) Bake() BakeSettings {
	return BakeSettings{
		ReduceKeys: c.ReduceKeys,
		MaxError:   c.MaxError,
		MaxKeys:    c.MaxKeys,
		Workers:    c.Workers,
	}
}
