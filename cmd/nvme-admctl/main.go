// Command nvme-admctl replays a scripted trace of NVMe admin commands
// against an in-process Processor, printing each command's completion.
// Trace lines name an opcode and a set of raw dword fields, the same
// shape admin passthru tools expose (cdw10..cdw15, prp1/prp2, nsid,
// cid) rather than a higher-level per-opcode argument set.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ehrlich-b/nvme-admind"
	"github.com/ehrlich-b/nvme-admind/internal/logging"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

var opcodeNames = map[string]uint8{
	"DELETE_SQ":      uapi.OpDeleteSQ,
	"CREATE_SQ":      uapi.OpCreateSQ,
	"GET_LOG_PAGE":   uapi.OpGetLogPage,
	"DELETE_CQ":      uapi.OpDeleteCQ,
	"CREATE_CQ":      uapi.OpCreateCQ,
	"IDENTIFY":       uapi.OpIdentify,
	"ABORT":          uapi.OpAbort,
	"SET_FEATURES":   uapi.OpSetFeatures,
	"GET_FEATURES":   uapi.OpGetFeatures,
	"ASYNC_EVENT_REQ": uapi.OpAsyncEventReq,
	"ACTIVATE_FW":    uapi.OpActivateFW,
	"DOWNLOAD_FW":    uapi.OpDownloadFW,
	"SECURITY_SEND":  uapi.OpSecuritySend,
	"SECURITY_RECV":  uapi.OpSecurityRecv,
	"FORMAT_NVM":     uapi.OpFormatNVM,
	"CREATE_PD":      uapi.OpCreatePD,
	"DELETE_PD":      uapi.OpDeletePD,
	"CREATE_STAG":    uapi.OpCreateSTag,
	"DELETE_STAG":    uapi.OpDeleteSTag,
	"CREATE_NSTAG":   uapi.OpCreateNSTag,
	"DELETE_NSTAG":   uapi.OpDeleteNSTag,
	"CREATE_NS":      uapi.OpCreateNS,
	"DELETE_NS":      uapi.OpDeleteNS,
	"MODIFY_NS":      uapi.OpModifyNS,
	"INJECT_ERROR":   uapi.OpInjectError,
}

func main() {
	var (
		tracePath = flag.String("trace", "", "path to a trace file (one admin command per line); reads stdin if empty")
		verbose   = flag.Bool("v", false, "verbose logging")
		nsDir     = flag.String("nsdir", "", "directory namespace backing files are provisioned under (temp dir if empty)")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)

	in := os.Stdin
	if *tracePath != "" {
		f, err := os.Open(*tracePath)
		if err != nil {
			logger.Error("failed to open trace", "path", *tracePath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	cfg := nvmeadmind.DefaultConfig()
	cfg.NamespaceStorageDir = *nsDir
	p := nvmeadmind.New(nvmeadmind.Options{Config: cfg, Logger: logger})

	scanner := bufio.NewScanner(in)
	lineNo := 0
	failures := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sqe, opName, err := parseLine(line)
		if err != nil {
			logger.Error("bad trace line", "line", lineNo, "error", err)
			failures++
			continue
		}

		cqe := p.ProcessAdmin(sqe)
		ok := cqe.SC() == uapi.StatusSuccess && cqe.SCT() == uapi.SCTGeneric
		if !ok {
			failures++
		}
		fmt.Printf("%-16s cid=%-5d sct=%#02x sc=%#02x cmdspecific=%#x %s\n",
			opName, sqe.CID, cqe.SCT(), cqe.SC(), cqe.CmdSpecific, statusWord(ok))
	}
	if err := scanner.Err(); err != nil {
		logger.Error("error reading trace", "error", err)
		os.Exit(1)
	}

	snap := p.Metrics().Snapshot()
	fmt.Printf("\n%d commands replayed, %d failed, %d security transitions, %d async events delivered\n",
		snap.TotalOps, failures, snap.SecurityTransitions, snap.AsyncEventsDelivered)

	if failures > 0 {
		os.Exit(1)
	}
}

func statusWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

// parseLine decodes one trace line: "OPCODE_NAME key=value key=value ...".
// Recognized keys: nsid, cid, prp1, prp2, cdw10..cdw15. Values are parsed
// with strconv.ParseUint, accepting both decimal and 0x-prefixed hex.
func parseLine(line string) (*uapi.SQE, string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, "", fmt.Errorf("empty line")
	}

	opName := strings.ToUpper(fields[0])
	opcode, ok := opcodeNames[opName]
	if !ok {
		return nil, "", fmt.Errorf("unknown opcode %q", fields[0])
	}

	sqe := &uapi.SQE{Opcode: opcode}
	for _, kv := range fields[1:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed field %q", kv)
		}
		key, valStr := strings.ToLower(parts[0]), parts[1]
		val, err := strconv.ParseUint(valStr, 0, 64)
		if err != nil {
			return nil, "", fmt.Errorf("field %q: %w", kv, err)
		}
		switch key {
		case "nsid":
			sqe.NSID = uint32(val)
		case "cid":
			sqe.CID = uint16(val)
		case "prp1":
			sqe.PRP1 = val
		case "prp2":
			sqe.PRP2 = val
		case "cdw10":
			sqe.CDW10 = uint32(val)
		case "cdw11":
			sqe.CDW11 = uint32(val)
		case "cdw12":
			sqe.CDW12 = uint32(val)
		case "cdw13":
			sqe.CDW13 = uint32(val)
		case "cdw14":
			sqe.CDW14 = uint32(val)
		case "cdw15":
			sqe.CDW15 = uint32(val)
		default:
			return nil, "", fmt.Errorf("unknown field %q", key)
		}
	}
	return sqe, opName, nil
}
