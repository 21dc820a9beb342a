package config

import "github.com/spf13/pflag"

func stringFlag(fs *pflag.FlagSet, key, name, value, usage string) {
	fs.String(name, value, usage)
	annotate(fs, name, key)
}

func intFlag(fs *pflag.FlagSet, key, name string, value int, usage string) {
	fs.Int(name, value, usage)
	annotate(fs, name, key)
}

func uint64Flag(fs *pflag.FlagSet, key, name string, value uint64, usage string) {
	fs.Uint64(name, value, usage)
	annotate(fs, name, key)
}

func float64Flag(fs *pflag.FlagSet, key, name string, value float64, usage string) {
	fs.Float64(name, value, usage)
	annotate(fs, name, key)
}

func boolFlag(fs *pflag.FlagSet, key, name string, value bool, usage string) {
	fs.Bool(name, value, usage)
	annotate(fs, name, key)
}

func annotate(fs *pflag.FlagSet, name, key string) {
	// The flag was registered just above, so SetAnnotation cannot fail.
	_ = fs.SetAnnotation(name, keyAnnotation, []string{key})
}
