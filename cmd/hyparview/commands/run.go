package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/hyparview/src/hyparview"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a HyParView node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runHyParView,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runHyParView(cmd *cobra.Command, args []string) error {
	engine := hyparview.NewHyParView(&_config.HyParView)

	if err := engine.Init(); err != nil {
		_config.HyParView.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	engine.RunAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sig := <-sigCh
	_config.HyParView.Logger().WithField("signal", sig).Info("Leaving")

	engine.Leave()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	c := &_config.HyParView

	cmd.Flags().String("datadir", c.DataDir, "Top-level directory for configuration and peers.json")
	cmd.Flags().String("log", c.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write the logs to this file")
	cmd.Flags().String("moniker", c.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", c.BindAddr, "Listen IP:Port for hyparview node")
	cmd.Flags().StringP("advertise", "a", c.AdvertiseAddr, "Advertise IP:Port for hyparview node")
	cmd.Flags().DurationP("timeout", "t", c.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", c.MaxPool, "Connection pool size max")
	cmd.Flags().StringSliceP("join", "j", c.Contacts, "IP:Port of nodes to join through")

	// Service
	cmd.Flags().Bool("no-service", c.NoService, "Disable HTTP service")
	cmd.Flags().StringP("service-listen", "s", c.ServiceAddr, "Listen IP:Port for HTTP service")

	// Node
	cmd.Flags().Int("mailbox-size", c.MailboxSize, "Number of local requests waiting for the node")
	cmd.Flags().Int("discovery-size", c.DiscoverySize, "Number of discovered peers waiting to be consumed")

	// Protocol
	cmd.Flags().Int("active-size", c.HPV.MaxActiveViewSize, "Capacity of the active view")
	cmd.Flags().Int("passive-size", c.HPV.MaxPassiveViewSize, "Capacity of the passive view")
	cmd.Flags().Int("arwl", c.HPV.ActiveRWL, "Active random walk length of joins")
	cmd.Flags().Int("prwl", c.HPV.PassiveRWL, "Passive random walk length of joins")
	cmd.Flags().Int("shuffle-rwl", c.HPV.ShuffleRWL, "Random walk length of shuffles")
	cmd.Flags().Int("shuffle-active", c.HPV.ShuffleActive, "Number of active peers in a shuffle")
	cmd.Flags().Int("shuffle-passive", c.HPV.ShufflePassive, "Number of passive peers in a shuffle")
	cmd.Flags().Duration("shuffle-interval", c.HPV.ShuffleInterval, "Time between shuffles")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	if _config.LogFile != "" {
		addLogFileHook(_config.HyParView.Logger().Logger, _config.LogFile)
	}

	c := &_config.HyParView

	_config.HyParView.Logger().WithFields(logrus.Fields{
		"hyparview.DataDir":       c.DataDir,
		"hyparview.BindAddr":      c.BindAddr,
		"hyparview.AdvertiseAddr": c.AdvertiseAddr,
		"hyparview.ServiceAddr":   c.ServiceAddr,
		"hyparview.NoService":     c.NoService,
		"hyparview.MaxPool":       c.MaxPool,
		"hyparview.TCPTimeout":    c.TCPTimeout,
		"hyparview.Contacts":      c.Contacts,
		"hyparview.LogLevel":      c.LogLevel,
		"hyparview.Moniker":       c.Moniker,
		"hpv.MaxActiveViewSize":   c.HPV.MaxActiveViewSize,
		"hpv.MaxPassiveViewSize":  c.HPV.MaxPassiveViewSize,
		"hpv.ActiveRWL":           c.HPV.ActiveRWL,
		"hpv.PassiveRWL":          c.HPV.PassiveRWL,
		"hpv.ShuffleRWL":          c.HPV.ShuffleRWL,
		"hpv.ShuffleInterval":     c.HPV.ShuffleInterval,
		"LogFile":                 _config.LogFile,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/hyparview.toml (.json, .yaml also work)
	viper.SetConfigName("hyparview")
	viper.AddConfigPath(_config.HyParView.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.HyParView.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.HyParView.Logger().Debugf("No config file found in: %s", _config.HyParView.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// the logger was created with the level given by the flags
	_config.HyParView.ApplyLogLevel()

	return nil
}

// addLogFileHook copies every log entry, whatever its level, to path.
func addLogFileHook(logger *logrus.Logger, path string) {
	pathMap := lfshook.PathMap{}
	for _, level := range logrus.AllLevels {
		pathMap[level] = path
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
