package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML configuration file; watched for display changes",
	}
	interfaceFlag = &cli.StringFlag{
		Name:    "interface",
		Aliases: []string{"i"},
		Usage:   "Monitor-mode interface to capture from (e.g., wlan0mon)",
	}
	sourceFlag = &cli.StringFlag{
		Name:  "source",
		Usage: "Capture source: pcap, tshark or lumber",
	}
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Read frames from a capture file instead of an interface",
	}
	filterFlag = &cli.StringFlag{
		Name:  "filter",
		Usage: "Capture filter (BPF for live capture, display filter for tshark files)",
	}
	lumberAddrFlag = &cli.StringFlag{
		Name:  "lumber-addr",
		Usage: "Listen address for remote drones speaking lumberjack v2",
	}
	groupsFlag = &cli.StringFlag{
		Name:  "groups",
		Usage: "Path of the manual groups file",
	}
	groupsBackendFlag = &cli.StringFlag{
		Name:  "groups-backend",
		Usage: "Manual groups storage: toml or sqlite",
	}
	sortFlag = &cli.StringFlag{
		Name:  "sort",
		Usage: "Initial sort mode (autofit, recent, type, channel, first, first_desc, last, last_desc, bssid, ssid, packets, packets_desc)",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Serve Prometheus metrics on this address (e.g., :9120)",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to this file; the terminal belongs to the UI",
	}
	reportFlag = &cli.StringFlag{
		Name:  "report",
		Usage: "Write an HTML session report into this directory on exit",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Directory to write the report into",
		Value: ".",
	}
)

var app = &cli.App{
	Name:  "gonetlist",
	Usage: "Watch 802.11 networks as a grouped, sorted, live list",
	Flags: []cli.Flag{
		configFlag,
		interfaceFlag,
		sourceFlag,
		fileFlag,
		filterFlag,
		lumberAddrFlag,
		groupsFlag,
		groupsBackendFlag,
		sortFlag,
		metricsAddrFlag,
		logFileFlag,
		reportFlag,
	},
	Action: runMonitor,
	Commands: []*cli.Command{
		{
			Name:  "groups",
			Usage: "Inspect persisted manual groups",
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "Print every manual group and its members",
					Flags:  []cli.Flag{configFlag, groupsFlag, groupsBackendFlag},
					Action: listGroups,
				},
			},
		},
		{
			Name:  "report",
			Usage: "Read a capture file to the end and write an HTML report",
			Flags: []cli.Flag{
				configFlag,
				sourceFlag,
				fileFlag,
				filterFlag,
				groupsFlag,
				groupsBackendFlag,
				logFileFlag,
				outFlag,
			},
			Action: offlineReport,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gonetlist:", err)
		os.Exit(1)
	}
}
