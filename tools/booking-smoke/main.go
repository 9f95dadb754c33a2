// booking-smoke exercises a running reservation service end to end: it lists
// the open slots for an employee/service/date and books the first one.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BASE_URL", "http://localhost:8084"), "reservation service base url")
		business = flag.String("business-id", getenv("BUSINESS_ID", ""), "business id")
		employee = flag.String("employee-id", getenv("EMPLOYEE_ID", ""), "employee id")
		service  = flag.String("service-id", getenv("SERVICE_ID", ""), "service id")
		date     = flag.String("date", getenv("DATE", time.Now().UTC().Format("2006-01-02")), "date (YYYY-MM-DD)")
		name     = flag.String("client-name", getenv("CLIENT_NAME", "Smoke Test"), "client name")
		email    = flag.String("client-email", getenv("CLIENT_EMAIL", "smoke@example.com"), "client email")
	)
	flag.Parse()

	for k, v := range map[string]string{"BUSINESS_ID": *business, "EMPLOYEE_ID": *employee, "SERVICE_ID": *service} {
		if strings.TrimSpace(v) == "" {
			fatal(k + " is required")
		}
	}

	base := strings.TrimRight(*baseURL, "/")
	slotsURL := fmt.Sprintf("%s/api/v1/public/slots?business_id=%s&employee_id=%s&service_id=%s&date=%s",
		base, *business, *employee, *service, *date)

	resp, err := http.Get(slotsURL)
	if err != nil {
		fatal(err.Error())
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fatal(fmt.Sprintf("slots query returned %d: %s", resp.StatusCode, body))
	}

	var slots []string
	if err := json.Unmarshal(body, &slots); err != nil {
		fatal("invalid slots response: " + err.Error())
	}
	fmt.Printf("open slots on %s: %v\n", *date, slots)
	if len(slots) == 0 {
		fmt.Println("nothing to book")
		return
	}

	payload, err := json.Marshal(map[string]string{
		"business_id":  *business,
		"employee_id":  *employee,
		"service_id":   *service,
		"date":         *date,
		"start_time":   slots[0],
		"client_name":  *name,
		"client_email": *email,
	})
	if err != nil {
		fatal(err.Error())
	}

	resp, err = http.Post(base+"/api/v1/public/reservations", "application/json", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		fatal(fmt.Sprintf("booking returned %d: %s", resp.StatusCode, body))
	}
	fmt.Printf("booked %s: %s\n", slots[0], body)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
