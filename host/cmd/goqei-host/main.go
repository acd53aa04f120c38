package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"goqei/host/mcu"
	"goqei/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	fmt.Println("goqei Host - Quadrature Encoder Host Tool")
	fmt.Print("=========================================\n\n")

	// Create MCU instance
	mcuConn := mcu.NewMCU()

	// Connect to MCU
	fmt.Printf("Connecting to MCU on %s...\n", *device)
	if err := mcuConn.Connect(*device); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mcuConn.Close()

	fmt.Println("Connected successfully!")

	// Retrieve dictionary
	if err := mcuConn.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}

	// Print dictionary summary
	mcuConn.PrintDictionary()

	// Interactive command loop
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts, err := shlex.Split(line)
		if err != nil || len(parts) == 0 {
			fmt.Println("Invalid command line")
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "dict":
			mcuConn.PrintDictionary()

		case "raw":
			// Print raw dictionary data
			raw := mcuConn.GetDictionaryRaw()
			fmt.Printf("Raw dictionary data (%d bytes):\n%s\n", len(raw), string(raw))

		case "get_uptime":
			if err := sendGetUptime(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "get_clock":
			if err := sendGetClock(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "get_config":
			if err := sendGetConfig(mcuConn); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "config_encoder":
			// config_encoder <oid> <pin_a> <pin_b>
			if err := configEncoder(mcuConn, parts[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "count":
			// count <oid>
			if err := readCount(mcuConn, parts[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "watch":
			// watch <oid> [oid...]
			if err := watchCounts(mcuConn, parts[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                               - Show this help message")
	fmt.Println("  dict                               - Print dictionary summary")
	fmt.Println("  raw                                - Print raw dictionary data")
	fmt.Println("  get_uptime                         - Get MCU uptime")
	fmt.Println("  get_clock                          - Get MCU clock")
	fmt.Println("  get_config                         - Get MCU configuration")
	fmt.Println("  config_encoder <oid> <pinA> <pinB> - Create an encoder (pinB = pinA+1)")
	fmt.Println("  count <oid>                        - Read the current count of an encoder")
	fmt.Println("  watch <oid> [oid...]               - Poll encoder counts every 100ms")
	fmt.Println("  quit/exit/q                        - Exit the program")
	fmt.Println()
}

func parseUintArgs(args []string, want int) ([]uint32, error) {
	if len(args) != want {
		return nil, fmt.Errorf("expected %d arguments, got %d", want, len(args))
	}
	vals := make([]uint32, want)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", a, err)
		}
		vals[i] = uint32(v)
	}
	return vals, nil
}

func configEncoder(mcuConn *mcu.MCU, args []string) error {
	vals, err := parseUintArgs(args, 3)
	if err != nil {
		return err
	}

	if err := mcuConn.ConfigEncoder(vals[0], vals[1], vals[2]); err != nil {
		return fmt.Errorf("failed to send config_encoder: %w", err)
	}

	fmt.Printf("Encoder %d configured on gpio%d/gpio%d\n", vals[0], vals[1], vals[2])
	return nil
}

func readCount(mcuConn *mcu.MCU, args []string) error {
	vals, err := parseUintArgs(args, 1)
	if err != nil {
		return err
	}

	count, err := mcuConn.RequestEncoderCount(vals[0], 1*time.Second)
	if err != nil {
		return err
	}

	fmt.Printf("count: %d\n", count)
	return nil
}

// watchCounts polls one or more encoders every 100ms until an error occurs
func watchCounts(mcuConn *mcu.MCU, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("expected at least one oid")
	}

	oids := make([]uint32, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid oid %q: %w", a, err)
		}
		oids = append(oids, uint32(v))
	}

	fmt.Println("Watching encoder counts (Ctrl-C to stop)...")
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		var line strings.Builder
		for i, oid := range oids {
			count, err := mcuConn.RequestEncoderCount(oid, 500*time.Millisecond)
			if err != nil {
				return err
			}
			if i > 0 {
				line.WriteString("  ")
			}
			fmt.Fprintf(&line, "count%d:%d", i+1, count)
		}
		fmt.Println(line.String())
	}

	return nil
}

func sendGetUptime(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_uptime command...")

	// get_uptime has no arguments, format: ""
	if err := mcuConn.SendCommand("get_uptime", nil); err != nil {
		return fmt.Errorf("failed to send get_uptime: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

func sendGetClock(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_clock command...")

	// get_clock has no arguments, format: ""
	if err := mcuConn.SendCommand("get_clock", nil); err != nil {
		return fmt.Errorf("failed to send get_clock: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("Waiting for response...")

	// Wait a bit for response to arrive
	time.Sleep(100 * time.Millisecond)

	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

func sendGetConfig(mcuConn *mcu.MCU) error {
	fmt.Println("Sending get_config command...")

	// get_config has no arguments, format: ""
	if err := mcuConn.SendCommand("get_config", nil); err != nil {
		return fmt.Errorf("failed to send get_config: %w", err)
	}

	fmt.Println("Command sent successfully!")
	fmt.Println("(Note: Response handling not yet implemented - check MCU logs)")

	return nil
}

// DecodeResponse decodes a response message payload
func DecodeResponse(payload []byte) (cmdID uint16, data []byte, err error) {
	// Decode command ID
	cmdIDUint, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode command ID: %w", err)
	}

	return uint16(cmdIDUint), payload, nil
}
