package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go-council/council/config"
	"go-council/council/paxos"
	"go-council/council/record"
	"go-council/council/transport"
)

const usage = "Usage: go-council <MemberId> [--config PATH] [--propose CANDIDATE] [--delay MILLIS] [--settings PATH]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	selfID := os.Args[1]

	cfgPath := "network.config"
	settingsPath := ""
	propose := ""
	delayMs := int64(1000)

	// Walking the arguments by hand so that unknown flags are ignored
	// instead of refused.
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--config":
			if i+1 < len(os.Args) {
				i++
				cfgPath = os.Args[i]
			}
		case "--propose":
			if i+1 < len(os.Args) {
				i++
				propose = os.Args[i]
			}
		case "--delay":
			if i+1 < len(os.Args) {
				i++
				ms, err := strconv.ParseInt(os.Args[i], 10, 64)
				if err != nil || ms < 0 {
					fmt.Fprintf(os.Stderr, "invalid --delay value %q\n", os.Args[i])
					os.Exit(1)
				}
				delayMs = ms
			}
		case "--settings":
			if i+1 < len(os.Args) {
				i++
				settingsPath = os.Args[i]
			}
		default:
			// unknown flags are ignored
		}
	}

	reg, err := config.LoadRegistry(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load registry %s: %v\n", cfgPath, err)
		os.Exit(1)
	}
	if !reg.Contains(selfID) {
		fmt.Fprintf(os.Stderr, "self id %s not found in %s\n", selfID, cfgPath)
		os.Exit(2)
	}

	settings := config.Settings{}
	if settingsPath != "" {
		if err := settings.LoadFile(settingsPath); err != nil {
			fmt.Fprintf(os.Stderr, "could not load settings %s: %v\n", settingsPath, err)
			os.Exit(1)
		}
	}
	settings.FillEmptyFields()

	store, err := record.Open(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open the decision record: %v\n", err)
		os.Exit(1)
	}

	net := transport.NewTCP(selfID, reg, time.Second*settings.DIAL_TIMEOUT)
	node := paxos.NewNode(selfID, reg, net, store,
		paxos.WithSweepInterval(time.Second*settings.SWEEP_INTERVAL))

	if err := node.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "could not start listening: %v\n", err)
		os.Exit(1)
	}

	// graceful close on SIGINT/SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Printf("[MAIN] -> Shutting down.")
		_ = node.Close()
		_ = store.Close()
		os.Exit(0)
	}()

	if propose != "" {
		go func() {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
			log.Printf("[MAIN] -> Auto-proposing %s after %d ms.", propose, delayMs)
			if err := node.Propose(propose); err != nil {
				log.Printf("[MAIN] -> Could not start the automatic proposal: %v.", err)
			}
		}()
	}

	fmt.Printf("[%s] ready. Type a candidate id to propose (e.g. M5).\n", selfID)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		candidate := strings.TrimSpace(sc.Text())
		if candidate == "" {
			continue
		}
		if err := node.Propose(candidate); err != nil {
			if errors.Is(err, paxos.ErrUnknownCandidate) {
				fmt.Printf("[%s] Unknown candidate '%s'. Must be one of %v.\n", selfID, candidate, reg.IDs())
				continue
			}
			log.Printf("[MAIN] -> Could not start the proposal: %v.", err)
		}
	}

	// Standard input is gone (scripted run): keep serving until a signal
	// arrives.
	select {}
}
