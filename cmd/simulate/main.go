// simulate probes the booking-consistency guarantee from outside: it points N
// concurrent patients at the same free slot and verifies that exactly one
// booking comes back Confirmed while the rest are rejected as conflicts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type doctorInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

type tokenInfo struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
}

func main() {
	apiBase := flag.String("api", "http://localhost:8080", "api-server base URL")
	doctorID := flag.String("doctor", "", "doctor id to book against (default: first listed)")
	date := flag.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "appointment date")
	slot := flag.String("slot", "09:00 - 09:30", "slot label to fight over")
	workers := flag.Int("workers", 20, "concurrent booking attempts")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	doctor, err := pickDoctor(*apiBase, *doctorID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pick doctor: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("target: doctor=%s (%s) date=%s slot=%q workers=%d\n",
		doctor.Name, doctor.ID, *date, *slot, *workers)

	var confirmed, conflicted, failed int64
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			patient, err := signupAndLogin(*apiBase)
			if err != nil {
				fmt.Fprintf(os.Stderr, "patient setup: %v\n", err)
				atomic.AddInt64(&failed, 1)
				return
			}

			<-start

			status, err := book(*apiBase, patient, doctor, *date, *slot)
			switch {
			case err != nil:
				fmt.Fprintf(os.Stderr, "book: %v\n", err)
				atomic.AddInt64(&failed, 1)
			case status == http.StatusCreated:
				atomic.AddInt64(&confirmed, 1)
			case status == http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				fmt.Fprintf(os.Stderr, "unexpected status %d\n", status)
				atomic.AddInt64(&failed, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	fmt.Printf("confirmed=%d conflict=%d failed=%d\n", confirmed, conflicted, failed)
	if confirmed != 1 {
		fmt.Println("PROPERTY VIOLATED: expected exactly one confirmed booking")
		os.Exit(1)
	}
	fmt.Println("ok: exactly one booking confirmed")
}

func pickDoctor(apiBase, wantID string) (*doctorInfo, error) {
	resp, err := http.Get(apiBase + "/api/doctors")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doctors []doctorInfo
	if err := json.NewDecoder(resp.Body).Decode(&doctors); err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, fmt.Errorf("no doctors; run cmd/seed first")
	}
	if wantID == "" {
		return &doctors[0], nil
	}
	for i := range doctors {
		if doctors[i].ID == wantID {
			return &doctors[i], nil
		}
	}
	return nil, fmt.Errorf("doctor %s not found", wantID)
}

func signupAndLogin(apiBase string) (*tokenInfo, error) {
	email := gofakeit.Email()
	password := "simulate-" + gofakeit.LetterN(8)

	signup := map[string]any{
		"name":     gofakeit.Name(),
		"email":    email,
		"password": password,
		"phone":    gofakeit.Phone(),
		"age":      gofakeit.Number(18, 80),
		"address":  gofakeit.Address().Address,
	}
	if _, err := postJSON(apiBase+"/api/patients/signup", "", signup, http.StatusCreated); err != nil {
		return nil, err
	}

	body, err := postJSON(apiBase+"/api/patients/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var tok tokenInfo
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func book(apiBase string, patient *tokenInfo, doctor *doctorInfo, date, slot string) (int, error) {
	payload, err := json.Marshal(map[string]any{
		"patient_id":       patient.ID,
		"doctor_id":        doctor.ID,
		"doctor_name":      doctor.Name,
		"patient_name":     patient.Name,
		"specialization":   doctor.Specialization,
		"appointment_date": date,
		"time_slot":        slot,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, apiBase+"/api/appointments", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+patient.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func postJSON(url, token string, payload any, wantStatus int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("%s: status %d: %s", url, resp.StatusCode, body)
	}
	return body, nil
}
