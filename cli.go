/*
 *  cli.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"fmt"
	"io"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "hicscaf",
	Short:   "Genome scaffolding based on Hi-C data",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetLevel(logging.DEBUG, "hicscaf")
		} else {
			logging.SetLevel(logging.NOTICE, "hicscaf")
		}
	},
	SilenceUsage: true,
}

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <contigs.fa|contigs.fa.fai> <links.bin[.zst]>",
	Short: "Order and orient contigs into scaffolds",
	Long: `Order and orient contigs into scaffolds over a ladder of resolutions.
The links are the binary pair stream made by "hicscaf dump".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScaffold(cmd, args[0], args[1])
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <alignments.bam|alignments.bed> <contigs.fa.fai>",
	Short: "Convert read alignments to the binary pair stream",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		out, _ := flags.GetString("out")
		mapq, _ := flags.GetInt("mapq")
		minLength, _ := flags.GetInt("min-length")
		dumper := Dumper{
			Infile:    args[0],
			Faifile:   args[1],
			Outfile:   out,
			MinMapQ:   mapq,
			MinLength: minLength,
		}
		return dumper.Run()
	},
}

var preCmd = &cobra.Command{
	Use:   "pre <links.bin[.zst]> <contigs.fa.fai>",
	Short: "Export pairs in scaffold coordinates for Juicer pre",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		agp, _ := flags.GetString("agp")
		out, _ := flags.GetString("out")
		npy, _ := flags.GetString("npy")
		npyBin, _ := flags.GetInt("npy-bin")
		minLength, _ := flags.GetInt("min-length")
		juicer := Juicer{
			Linkfile:  args[0],
			AGPfile:   agp,
			Faifile:   args[1],
			MinLength: minLength,
			Outfile:   out,
			Npyfile:   npy,
			NpyBin:    npyBin,
		}
		return juicer.Run()
	},
}

var breakCmd = &cobra.Command{
	Use:   "break <contigs.fa.fai> <links.bin[.zst]>",
	Short: "Break contigs at Hi-C coverage drops",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		out, _ := flags.GetString("out")
		minLength, _ := flags.GetInt("min-length")
		dict, err := ReadFai(args[0], minLength)
		if err != nil {
			return err
		}
		layout, n, _, err := ContigErrorBreak(LinkFile(args[1]), NewLayoutFromDict(dict), DefaultConfig().Break)
		if err != nil {
			return err
		}
		log.Noticef("%d breaks, %d sequences", n, layout.Len())
		return WriteAGPFile(out, layout)
	},
}

var fastaCmd = &cobra.Command{
	Use:   "fasta <scaffolds.agp> <contigs.fa>",
	Short: "Build the scaffold sequences from an AGP",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		builder := Builder{AGPfile: args[0], Fastafile: args[1], Outfile: out}
		return builder.Run()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug messages")

	def := DefaultConfig()
	flags := scaffoldCmd.Flags()
	flags.String("agp", "", "start from this AGP instead of the contigs")
	flags.StringP("out", "o", "hicscaf", "prefix of the output files")
	flags.IntSliceP("resolutions", "r", nil, "ascending resolutions, derived from the genome size if empty")
	flags.IntP("min-length", "l", 0, "minimum length of a contig to scaffold")
	flags.String("memory", "", "memory limit, e.g. 32G; unlimited if empty")
	flags.Bool("no-contig-ec", false, "do not break contigs at coverage drops")
	flags.Bool("no-scaffold-ec", false, "do not check the new joins of each round")
	flags.Bool("no-fasta", false, "do not write the scaffold FASTA")
	flags.Int("gap-size", def.GapSize, "number of Ns between joined sequences")
	flags.Int("max-seqs", def.MaxSeqs, "maximum number of scaffolding units")
	flags.String("debug-graph", "", "write DOT graphs of every round to this directory")
	for _, key := range []string{"out", "min-length", "no-contig-ec",
		"no-scaffold-ec", "gap-size", "max-seqs", "debug-graph"} {
		viper.BindPFlag(key, flags.Lookup(key))
	}

	dumpCmd.Flags().StringP("out", "o", "", "output .bin or .bin.zst file")
	dumpCmd.Flags().IntP("mapq", "q", 10, "minimum mapping quality")
	dumpCmd.Flags().IntP("min-length", "l", 0, "minimum contig length, as given to scaffold")

	preCmd.Flags().String("agp", "", "scaffold AGP, contigs are used as is without it")
	preCmd.Flags().StringP("out", "o", "", "output text file")
	preCmd.Flags().String("npy", "", "also write a dense contact map to this .npy file")
	preCmd.Flags().Int("npy-bin", 1000000, "bin size of the contact map")
	preCmd.Flags().IntP("min-length", "l", 0, "minimum contig length, as given to dump")

	breakCmd.Flags().StringP("out", "o", "hicscaf_initial_break.agp", "output AGP")
	breakCmd.Flags().IntP("min-length", "l", 0, "minimum contig length, as given to dump")

	fastaCmd.Flags().StringP("out", "o", "", "output FASTA")

	rootCmd.AddCommand(scaffoldCmd, dumpCmd, preCmd, breakCmd, fastaCmd)
}

// initConfig reads in the config file and HICSCAF_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Cannot read config file `%s`: %v", cfgFile, err)
		}
		log.Noticef("Using config file `%s`", viper.ConfigFileUsed())
	}
	viper.SetEnvPrefix("HICSCAF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// loadConfig merges the defaults, config file, environment and flags
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config: %v", err)
	}
	if cmd.Flags().Changed("resolutions") {
		cfg.Resolutions, _ = cmd.Flags().GetIntSlice("resolutions")
	}
	memory, _ := cmd.Flags().GetString("memory")
	if memory != "" {
		limit, err := ParseMemory(memory)
		if err != nil {
			return cfg, fmt.Errorf("invalid memory limit `%s`: %v", memory, err)
		}
		cfg.MemoryLimit = limit
	}
	return cfg, cfg.Validate()
}

// runScaffold is the scaffold command
func runScaffold(cmd *cobra.Command, seqfile, linkfile string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var dict *SeqDict
	fastafile := ""
	if strings.HasSuffix(seqfile, ".fai") {
		dict, err = ReadFai(seqfile, cfg.MinLength)
	} else {
		fastafile = seqfile
		dict, err = ReadSeqDict(seqfile, cfg.MinLength)
	}
	if err != nil {
		return err
	}

	scaffolder := Scaffolder{
		Config: cfg,
		Dict:   dict,
		Links:  LinkFile(linkfile),
	}
	if agp, _ := cmd.Flags().GetString("agp"); agp != "" {
		if scaffolder.Start, err = ReadAGP(agp, dict); err != nil {
			return err
		}
	}
	result, err := scaffolder.Run()
	if err != nil {
		return err
	}

	noFasta, _ := cmd.Flags().GetBool("no-fasta")
	if fastafile == "" || noFasta || cfg.OutPrefix == "" {
		return nil
	}
	outfile := cfg.OutPrefix + "_scaffolds_final.fa"
	if err := WriteFileAtomic(outfile, func(w io.Writer) error {
		return WriteFasta(w, result.Layout, fastafile, 60)
	}); err != nil {
		return err
	}
	log.Noticef("Scaffold sequences written to `%s`", outfile)
	return nil
}

// Execute adds all child commands to the root command and runs it
func Execute() error {
	return rootCmd.Execute()
}
