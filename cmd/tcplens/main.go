// tcplens captures TCP segments from a raw socket and prints the parsed
// header of each one, including the checksum verdict.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"go.kyrene.io/tcplens/collector"
	"go.kyrene.io/tcplens/internal/rawsock"
	"go.kyrene.io/tcplens/segment"
)

var (
	port  = flag.Uint("port", 0, "Only inspect segments addressed to this TCP port. 0 inspects everything.")
	count = flag.Int("count", 0, "Stop after this many segments. 0 runs until interrupted.")
	debug = flag.Bool("debug", false, "Verbose development logging.")
)

func usage() {

	fmt.Fprintf(os.Stderr, "usage: tcplens -port=[uint16] -count=[int] -debug\n")
	flag.PrintDefaults()
	os.Exit(2)
}

// setLogs sets up the global logger.
func setLogs(debug bool) error {

	config := zap.NewProductionConfig()
	if debug {
		config = zap.NewDevelopmentConfig()
	}
	logger, err := config.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func main() {

	flag.Usage = usage
	flag.Parse()

	if err := setLogs(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logs: %s\n", err)
		os.Exit(1)
	}

	sniffer, err := rawsock.Open(uint16(*port))
	if err != nil {
		zap.L().Fatal("Cannot open capture socket", zap.Error(err))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-c
		_ = sniffer.Close()
	}()

	events := collector.NewDefaultCollector()

	seen := 0
	for *count == 0 || seen < *count {
		packet, err := sniffer.Next()
		if err != nil {
			zap.L().Info("Capture stopped", zap.Error(err))
			break
		}
		if inspect(packet, events) {
			seen++
		}
	}
}

// inspect parses one captured IP packet and prints the TCP view. It
// reports whether the packet carried an inspectable segment.
func inspect(packet []byte, events collector.EventCollector) bool {

	ipHeader, err := ipv4.ParseHeader(packet)
	if err != nil {
		zap.L().Debug("Skipping packet without a parseable IP header", zap.Error(err))
		return false
	}
	if ipHeader.Protocol != segment.IPProtocolTCP || ipHeader.Len > len(packet) {
		return false
	}

	// The raw socket can hand us trailing bytes beyond the IP total length.
	end := ipHeader.TotalLen
	if end > len(packet) || end < ipHeader.Len {
		end = len(packet)
	}
	tcpBytes := packet[ipHeader.Len:end]

	pseudo, err := segment.PseudoHeader(ipHeader.Src, ipHeader.Dst, uint16(len(tcpBytes)))
	if err != nil {
		zap.L().Debug("Skipping packet without a usable address pair", zap.Error(err))
		return false
	}

	seg, err := segment.NewWithPseudoHeader(tcpBytes, pseudo)
	if err != nil {
		zap.L().Warn("Malformed TCP segment",
			zap.String("source", ipHeader.Src.String()),
			zap.Error(err),
		)
		return false
	}

	fmt.Println(seg.String())

	verdict, _ := seg.VerifyChecksum()
	record, err := collector.NewFlowRecord(
		collector.NewEndPoint(ipHeader.Src, seg.SourcePort()),
		collector.NewEndPoint(ipHeader.Dst, seg.DestinationPort()),
		seg.Flags(),
		collector.OptionChecksumVerdict(verdict),
	)
	if err != nil {
		zap.L().Error("Cannot create flow record", zap.Error(err))
		return true
	}
	events.CollectFlowEvent(record)
	return true
}
