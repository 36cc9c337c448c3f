package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestPricePayload(t *testing.T) {
	data := PricePayload("xau", "2025-03-01", map[string]float64{"usd": 2000})

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["date"] != "2025-03-01" {
		t.Errorf("date = %v, expected 2025-03-01", decoded["date"])
	}
	rates, ok := decoded["xau"].(map[string]interface{})
	if !ok || rates["usd"] != 2000.0 {
		t.Errorf("xau = %v, expected usd rate 2000", decoded["xau"])
	}

	if _, ok := decodeMap(t, PricePayload("xag", "", nil))["date"]; ok {
		t.Error("empty date should be omitted")
	}
}

func TestPriceSource(t *testing.T) {
	payload := PricePayload("xau", "2025-03-01", map[string]float64{"usd": 2000})
	source := NewPriceSource(t, http.StatusOK, map[string][]byte{"xau.json": payload})

	resp, err := http.Get(source.URL + "/v1/currencies/xau.json")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != string(payload) {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(source.URL + "/v1/currencies/xag.json")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown file status = %d, expected 404", resp.StatusCode)
	}

	source.SetStatus(http.StatusInternalServerError)
	resp, err = http.Get(source.URL + "/xau.json")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", resp.StatusCode)
	}

	if source.Hits() != 3 {
		t.Errorf("Hits() = %d, expected 3", source.Hits())
	}
}

func decodeMap(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	return decoded
}
