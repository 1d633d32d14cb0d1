package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/radio"
)

var downloadFlags = struct {
	output string
	csvDir string
}{}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Capture codeplug memory from the radio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		dev, port, err := openDevice(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = port.Close() }()

		ctx, cancel := signalContext()
		defer cancel()

		if err := dev.Download(ctx); err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		f, err := os.Create(downloadFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create image file: %w", err)
		}
		if err := dev.SaveImage(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to save image: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("Image saved", logger.String("file", downloadFlags.output))

		if downloadFlags.csvDir != "" {
			if err := dev.WriteCSVFiles(downloadFlags.csvDir); err != nil {
				return err
			}
		}

		dev.PrintConfig(os.Stdout, true)
		return nil
	},
}

var printFlags = struct {
	image string
}{}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Decode and print a saved codeplug image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		dev, err := offlineDM32(cfg, log, printFlags.image)
		if err != nil {
			return err
		}
		dev.PrintConfig(os.Stdout, true)
		return nil
	},
}

var csvFlags = struct {
	image string
	dir   string
}{}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Write the reverse-engineering CSV set from a saved image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		dev, err := offlineDM32(cfg, log, csvFlags.image)
		if err != nil {
			return err
		}
		return dev.WriteCSVFiles(csvFlags.dir)
	},
}

var verifyFlags = struct {
	image string
}{}

var verifyCmd = &cobra.Command{
	Use:   "verify <cps-export.csv>",
	Short: "Cross-check a CPS CSV export against the radio's contents",
	Long: `verify reads a CPS zone or channel export CSV and checks that every
entry exists on the radio. With --image the check runs against a saved
capture; otherwise the radio is read first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		var dev radio.Device
		if verifyFlags.image != "" {
			dev, err = offlineDM32(cfg, log, verifyFlags.image)
			if err != nil {
				return err
			}
		} else {
			live, port, err := openDevice(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = port.Close() }()

			ctx, cancel := signalContext()
			defer cancel()
			if err := live.Download(ctx); err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			dev = live
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open CSV: %w", err)
		}
		defer func() { _ = f.Close() }()

		res, err := dev.ValidateCSV(f)
		if err != nil {
			return err
		}
		for _, p := range res.Problems {
			fmt.Fprintln(os.Stderr, p)
		}
		fmt.Fprintf(os.Stderr, "Checked %d %s against the radio.\n", res.Checked, res.Kind)
		fmt.Fprintln(os.Stderr, res.Summary())
		if !res.Passed() {
			os.Exit(1)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dm32cfg %s (built %s)\n", version, buildTime)
		fmt.Println("Baofeng DM-32 (experimental)")
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadFlags.output, "output", "o", "dm32.img", "Image output file")
	downloadCmd.Flags().StringVar(&downloadFlags.csvDir, "csv", "", "Also write CSVs into this directory")

	printCmd.Flags().StringVarP(&printFlags.image, "image", "i", "dm32.img", "Saved image file")

	csvCmd.Flags().StringVarP(&csvFlags.image, "image", "i", "dm32.img", "Saved image file")
	csvCmd.Flags().StringVarP(&csvFlags.dir, "dir", "d", ".", "Output directory")

	verifyCmd.Flags().StringVarP(&verifyFlags.image, "image", "i", "", "Saved image file instead of a live read")
}
