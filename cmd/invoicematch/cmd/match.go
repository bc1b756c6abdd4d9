package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"invoice-matching-service/cmd/invoicematch/config"
	"invoice-matching-service/internal/models"
	"invoice-matching-service/internal/parsers"
	"invoice-matching-service/internal/reporter"
	"invoice-matching-service/internal/service"
	"invoice-matching-service/internal/store"
	"invoice-matching-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	invoiceFile  string
	invoicesFile string
	poFiles      []string
	outputFormat string
	outputFile   string
	profile      string

	totalTolerance       float64
	vendorThreshold      float64
	descriptionThreshold float64

	includeResolved bool
	includeLines    bool
	showQueue       bool
	actor           string
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match invoices against purchase orders",
	Long: `Match validates one invoice or a batch of invoices against purchase
orders. Purchase orders are loaded from JSON files and looked up by the
invoice's PO reference; a missing PO is reported as a critical issue, not
an error.

Examples:
  # Match a single invoice
  invoicematch match --invoice invoice.json --pos purchase_orders.json

  # Match a batch with JSON output
  invoicematch match --invoices batch.json --pos pos.json --output-format json

  # Strict tolerances with the review queue printed afterwards
  invoicematch match --invoice invoice.json --pos pos.json --profile strict --show-queue

  # Override the total tolerance to 2%
  invoicematch match --invoice invoice.json --pos pos.json --total-tolerance 0.02`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&invoiceFile, "invoice", "i", "", "path to a normalized invoice JSON file")
	matchCmd.Flags().StringVar(&invoicesFile, "invoices", "", "path to a JSON array of normalized invoices (batch mode)")
	matchCmd.Flags().StringSliceVarP(&poFiles, "pos", "p", []string{}, "comma-separated paths to purchase order JSON files (file may hold one PO or an array)")

	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	matchCmd.Flags().StringVar(&profile, "profile", "default", "matching profile: default, strict, relaxed")
	matchCmd.Flags().Float64Var(&totalTolerance, "total-tolerance", -1, "relative tolerance for the header total (0.01 = 1%)")
	matchCmd.Flags().Float64Var(&vendorThreshold, "vendor-threshold", -1, "minimum similarity for vendor name matching")
	matchCmd.Flags().Float64Var(&descriptionThreshold, "description-threshold", -1, "minimum similarity for line description pairing")

	matchCmd.Flags().BoolVar(&includeResolved, "include-resolved", false, "include resolved issues in the report")
	matchCmd.Flags().BoolVar(&includeLines, "show-lines", true, "show per-line comparison detail")
	matchCmd.Flags().BoolVar(&showQueue, "show-queue", false, "print the review queue after matching")
	matchCmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded on matching runs")

	viper.BindPFlag("invoice", matchCmd.Flags().Lookup("invoice"))
	viper.BindPFlag("invoices", matchCmd.Flags().Lookup("invoices"))
	viper.BindPFlag("pos", matchCmd.Flags().Lookup("pos"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("profile", matchCmd.Flags().Lookup("profile"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	invoiceFile = viper.GetString("invoice")
	invoicesFile = viper.GetString("invoices")
	if pos := viper.GetStringSlice("pos"); len(pos) > 0 {
		poFiles = pos
	}
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	profile = viper.GetString("profile")

	if invoiceFile == "" && invoicesFile == "" {
		return fmt.Errorf("either --invoice or --invoices is required")
	}
	if invoiceFile != "" && invoicesFile != "" {
		return fmt.Errorf("--invoice and --invoices are mutually exclusive")
	}
	if len(poFiles) == 0 {
		return fmt.Errorf("at least one purchase order file is required (--pos)")
	}

	if invoiceFile != "" {
		if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
			return err
		}
	}
	if invoicesFile != "" {
		if err := validateFileExists(invoicesFile, "invoice batch file"); err != nil {
			return err
		}
	}
	for i, poFile := range poFiles {
		if err := validateFileExists(poFile, fmt.Sprintf("purchase order file %d", i+1)); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	setupLogging()
	handler := NewCLIErrorHandler()

	matchingConfig, err := config.CreateMatchingConfig(profile, totalTolerance, vendorThreshold, descriptionThreshold)
	if err != nil {
		return err
	}
	serviceConfig, err := config.CreateServiceConfig(matchingConfig, 0, 0)
	if err != nil {
		return err
	}
	reportConfig, err := config.CreateReportConfig(outputFormat, includeResolved, includeLines)
	if err != nil {
		return err
	}

	memStore := store.NewMemoryStore()
	if err := loadPurchaseOrders(memStore); err != nil {
		os.Exit(handler.HandleError(err))
	}

	svc, err := service.New(memStore, serviceConfig, nil, logger.GetGlobalLogger())
	if err != nil {
		return err
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput()
	if err != nil {
		return err
	}
	defer closeWriter()

	if invoicesFile != "" {
		invoices, err := parsers.ParseInvoiceBatchFile(invoicesFile)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		summary := svc.MatchBatch(invoices, actor)
		if err := generator.GenerateBatchReport(summary, writer); err != nil {
			os.Exit(handler.HandleError(err))
		}
	} else {
		invoice, err := parsers.ParseInvoiceFile(invoiceFile)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		pair, err := svc.IngestInvoice(invoice, actor)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}
		result, err := svc.Match(pair.ID, invoice, actor)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}
		if err := generator.GenerateResultReport(result, writer); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	if showQueue {
		fmt.Fprintln(writer)
		if err := generator.GenerateQueueReport(svc.OpenQueue(), writer); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	return nil
}

// loadPurchaseOrders reads every PO file into the store. Files may hold a
// single PO object or a JSON array of them.
func loadPurchaseOrders(s *store.MemoryStore) error {
	for _, poFile := range poFiles {
		pos, err := parsePOFileFlexible(poFile)
		if err != nil {
			return err
		}
		for _, po := range pos {
			if err := s.SavePO(po); err != nil {
				return err
			}
		}
	}
	return nil
}

func parsePOFileFlexible(path string) ([]*models.PurchaseOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return parsers.ParsePurchaseOrderBatch(strings.NewReader(trimmed))
	}

	po, err := parsers.ParsePurchaseOrder(strings.NewReader(trimmed))
	if err != nil {
		return nil, err
	}
	return []*models.PurchaseOrder{po}, nil
}

func openOutput() (io.Writer, func(), error) {
	if outputFile == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func setupLogging() {
	logConfig := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		logConfig = logger.DebugConfig()
	}

	if log, err := logger.NewLogger(logConfig); err == nil {
		logger.SetGlobalLogger(log)
	}
}
