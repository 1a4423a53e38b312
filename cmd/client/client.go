package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"bourse/internal/common"
	"bourse/internal/ingest"
	bourseNet "bourse/internal/net"
)

func main() {
	// 1. CLI Parameter Parsing
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	customer := flag.String("customer", "", "Customer name (compulsory for place)")
	action := flag.String("action", "place", "Action to perform: ['place', 'eod', 'heartbeat']")

	// Order Parameters
	id := flag.Uint64("id", 1, "Order id of the first order; further orders count up")
	ticker := flag.String("ticker", "IBM", "Ticker symbol (max 4 chars)")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit', 'market', 'stop-limit' or 'stop-market'")
	price := flag.Float64("price", 100.0, "Limit price (limit orders)")
	trigger := flag.Float64("trigger", 0, "Trigger price (stop orders)")
	tifStr := flag.String("tif", "gtc", "Time in force: 'gtc' or 'fok'")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	flag.Parse()

	// Connect to Server
	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	// Start Listening for Reports (Async)
	go readReports(conn)

	switch strings.ToLower(*action) {
	case "place":
		if *customer == "" {
			fmt.Println("Error: -customer is compulsory.")
			flag.Usage()
			os.Exit(1)
		}
		side, err := common.ParseSide(*sideStr)
		if err != nil {
			log.Fatal(err)
		}
		orderType, stop, err := ingest.ParseOrderType(strings.ToUpper(*typeStr))
		if err != nil {
			log.Fatal(err)
		}
		tif, err := common.ParseTimeInForce(*tifStr)
		if err != nil {
			log.Fatal(err)
		}

		template := common.Order{
			Customer:    *customer,
			Side:        side,
			Ticker:      strings.ToUpper(*ticker),
			OrderType:   orderType,
			TimeInForce: tif,
		}
		if orderType == common.LimitOrder {
			template.LimitPrice = common.SomePrice(*price)
		}
		if stop {
			template.TriggerPrice = common.SomePrice(*trigger)
		}

		for i, q := range parseQuantities(*qtyStr) {
			order := template
			order.ID = common.OrderID(*id + uint64(i))
			order.Quantity = q
			if err := sendOrder(conn, order); err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", q, err)
				continue
			}
			fmt.Printf("-> Sent order %d: %s %s %d @ %v\n", order.ID, side, order.Ticker, q, order.LimitPrice)
		}

	case "eod":
		if err := bourseNet.WriteFrame(conn, bourseNet.EncodeMessage(bourseNet.EndOfDay)); err != nil {
			log.Printf("Failed to send end of day: %v", err)
		} else {
			fmt.Println("-> Sent End Of Day")
		}

	case "heartbeat":
		if err := bourseNet.WriteFrame(conn, bourseNet.EncodeMessage(bourseNet.Heartbeat)); err != nil {
			log.Printf("Failed to send heartbeat: %v", err)
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	// Keep the client alive to receive reports
	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

// parseQuantities splits a comma-separated string into a slice of uint64
func parseQuantities(input string) []uint64 {
	var result []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil && val > 0 {
			result = append(result, val)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

func sendOrder(conn net.Conn, order common.Order) error {
	body, err := bourseNet.EncodeNewOrder(order)
	if err != nil {
		return err
	}
	// Small sleep so the server sees the orders in sequence.
	time.Sleep(5 * time.Millisecond)
	return bourseNet.WriteFrame(conn, body)
}

// readReports continuously reads and prints reports from the server
func readReports(conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		body, err := bourseNet.ReadFrame(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}
		report, err := bourseNet.ParseReport(body)
		if err != nil {
			log.Printf("Error reading report: %v", err)
			continue
		}

		switch report.MessageType {
		case bourseNet.ErrorReport:
			fmt.Printf("\n[SERVER ERROR] order %d: %s\n", report.OrderID, report.Err)
		case bourseNet.DayReport:
			fmt.Printf("\n[DAY] Trading day %d open\n", report.Day)
		default:
			fmt.Printf("\n[EXECUTION] Order %d: %s %s | Qty: %d | Price: %s | Day: %d | vs: %s | UUID: %s\n",
				report.OrderID, report.Side, report.Ticker, report.Quantity,
				common.FormatPrice(report.Price), report.Day, report.Counterparty, report.UUID)
		}
	}
}
