// Package config defines the configuration keys of the dataflow command and
// binds them to command line flags, environment variables and an optional
// configuration file through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration
// keys; e.g. DATAFLOW_LOG_LEVEL for log.level.
const EnvPrefix = "DATAFLOW"

type ConfigType int

const (
	String ConfigType = iota
	Int
	Uint8
	Bool
)

// Def defines a configuration key and its command line flag.
type Def struct {
	Type     ConfigType // default to string
	Key      string
	KeyShort string // only valid in command line arguments, leave empty if not used
	Default  any
	Desc     string
}

var (
	CConfigFile = Def{
		Key:     "config",
		Default: "",
		Desc:    "configuration file (yaml, json or toml)",
	}
	CLogLevel = Def{
		Type:    Uint8,
		Key:     "log.level",
		Default: uint8(zerolog.InfoLevel),
		Desc:    "log level (0 = debug, 1 = info, 2 = warn, 3 = error)",
	}
	CLogFile = Def{
		Key:     "log.file",
		Default: "stderr",
		Desc:    "semicolon-separated log outputs; stdout, stderr or file paths",
	}
)

var (
	CDirection = Def{
		Key:      "direction",
		KeyShort: "d",
		Default:  "",
		Desc:     "direction of the analysis (forward or backward); overrides the problem",
	}
	CMaxPasses = Def{
		Type:    Int,
		Key:     "max-passes",
		Default: 0,
		Desc:    "maximum number of passes before giving up (0 = unbounded)",
	}
	CJSON = Def{
		Type:    Bool,
		Key:     "json",
		Default: false,
		Desc:    "print solutions as JSON snapshots",
	}
)

// GlobalFlagDefs lists the configuration keys shared by every command.
var GlobalFlagDefs = []Def{
	CConfigFile,
	CLogLevel,
	CLogFile,

	CDirection,
	CMaxPasses,
	CJSON,
}

// BuildFlagSet returns a flag set holding one flag per definition.
func BuildFlagSet(name string, defs ...Def) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	for _, def := range defs {
		switch def.Type {
		case String:
			flagSet.StringP(def.Key, def.KeyShort, def.Default.(string), def.Desc)
		case Int:
			flagSet.IntP(def.Key, def.KeyShort, def.Default.(int), def.Desc)
		case Uint8:
			flagSet.Uint8P(def.Key, def.KeyShort, def.Default.(uint8), def.Desc)
		case Bool:
			flagSet.BoolP(def.Key, def.KeyShort, def.Default.(bool), def.Desc)
		default:
			panic(fmt.Errorf("support for config type %d of key %q not yet implemented", def.Type, def.Key))
		}
	}
	return flagSet
}

// Bind registers the defaults of defs with v, binds v to the flags of
// flagSet and to environment variables with the EnvPrefix prefix.
func Bind(v *viper.Viper, flagSet *pflag.FlagSet, defs ...Def) error {
	for _, def := range defs {
		v.SetDefault(def.Key, def.Default)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flagSet); err != nil {
		return errors.Wrap(err, "failed to bind flags")
	}
	return nil
}

// ReadFile reads the configuration file named by the config key, if any.
func ReadFile(v *viper.Viper) error {
	path := v.GetString(CConfigFile.Key)
	if len(path) == 0 {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %q", path)
	}
	return nil
}
