package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/wafd/internal/adapter/fsm"
	adapter "github.com/neomorfeo/wafd/internal/adapter/http"
	"github.com/neomorfeo/wafd/internal/adapter/sqlite"
	"github.com/neomorfeo/wafd/internal/adapter/xlsx"
	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.Event) error {
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pub := &noopPublisher{}
	pilgrims := app.NewPilgrimService(store, app.NewRegistrationNumberGenerator(time.Now), pub)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("wafd", "0.1.0"))
	adapter.Register(api, adapter.Services{
		Tents:      app.NewTentService(store, pub),
		Allocation: app.NewAllocationService(store, fsm.New(), pub),
		Ledger:     app.NewBookingLedger(store),
		Pilgrims:   pilgrims,
		Agencies:   app.NewAgencyService(store),
		Statistics: app.NewStatisticsService(store),
		Importer:   xlsx.NewImporter(pilgrims),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request as an Admin.
// doRequest performs an HTTP request as an administrator.
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	return doRequestAs(t, asAdmin, method, url, body)
}

// doRequestAs performs an HTTP request with the given caller headers.
func doRequestAs(t *testing.T, headers map[string]string, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

var asAdmin = map[string]string{"X-Caller-Role": "Admin"}

func supervisorOf(agencyID int64) map[string]string {
	return map[string]string{
		"X-Caller-Role":   "Supervisor",
		"X-Caller-Agency": strconv.FormatInt(agencyID, 10),
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, want, body)
	}
}

func mustCreateAgency(t *testing.T, srv *httptest.Server, name string, maxPilgrims int) adapter.AgencyResponse {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"max_pilgrims":%d}`, name, maxPilgrims)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/agencies", body)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	return decode[adapter.AgencyResponse](t, resp)
}

func mustCreateTent(t *testing.T, srv *httptest.Server, capacity int, agencyID int64) adapter.TentResponse {
	t.Helper()

	body := fmt.Sprintf(`{"name":"Hall A","code":"A1","type":"male","capacity":%d,"agency_id":%d}`, capacity, agencyID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tents", body)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	return decode[adapter.TentResponse](t, resp)
}

func mustRegisterPilgrim(t *testing.T, srv *httptest.Server, nationalID string, agencyID int64) adapter.PilgrimResponse {
	t.Helper()

	body := fmt.Sprintf(`{"national_id":%q,"first_name":"Yusuf","last_name":"Ali","gender":"male","age":40,"nationality":"EG","phone":"0100","agency_id":%d}`, nationalID, agencyID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/pilgrims", body)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	return decode[adapter.PilgrimResponse](t, resp)
}

func bedURL(srv *httptest.Server, bedID int64, action string) string {
	return fmt.Sprintf("%s/api/v1/beds/%d/%s", srv.URL, bedID, action)
}

func tentURL(srv *httptest.Server, tentID int64) string {
	return fmt.Sprintf("%s/api/v1/tents/%d", srv.URL, tentID)
}

// --- Tents ---

func TestCreateTent(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 3, 0)

	if tent.ID == 0 {
		t.Error("ID should not be zero")
	}
	if tent.Location != "Hall A" {
		t.Errorf("Location = %q, want name fallback %q", tent.Location, "Hall A")
	}
	if len(tent.Beds) != 3 {
		t.Fatalf("got %d beds, want 3", len(tent.Beds))
	}
	for _, b := range tent.Beds {
		if b.Status != "Available" {
			t.Errorf("bed %d status = %q, want Available", b.ID, b.Status)
		}
	}
}

func TestCreateTent_InvalidType(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tents", `{"name":"Hall","type":"mixed","capacity":1}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestCreateTent_UnknownAgency(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tents", `{"name":"Hall","type":"male","capacity":1,"agency_id":99}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestGetTent_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, tentURL(srv, 42), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestGetTent_OtherAgencyHidden(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	b := mustCreateAgency(t, srv, "Group B", 10)
	tent := mustCreateTent(t, srv, 1, a.ID)

	resp := doRequestAs(t, supervisorOf(b.ID), http.MethodGet, tentURL(srv, tent.ID), "")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequestAs(t, supervisorOf(a.ID), http.MethodGet, tentURL(srv, tent.ID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}

func TestListTents_SupervisorSeesOwnAgency(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	b := mustCreateAgency(t, srv, "Group B", 10)
	mustCreateTent(t, srv, 1, a.ID)
	mustCreateTent(t, srv, 1, b.ID)

	resp := doRequestAs(t, supervisorOf(a.ID), http.MethodGet, srv.URL+"/api/v1/tents", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	tents := decode[[]adapter.TentResponse](t, resp)
	if len(tents) != 1 {
		t.Fatalf("got %d tents, want 1", len(tents))
	}
	if tents[0].AgencyID == nil || *tents[0].AgencyID != a.ID {
		t.Errorf("AgencyID = %v, want %d", tents[0].AgencyID, a.ID)
	}
}

func TestListTents_SupervisorWithoutAgency(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequestAs(t, map[string]string{"X-Caller-Role": "Supervisor"}, http.MethodGet, srv.URL+"/api/v1/tents", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestUpdateCapacity_KeepsBookedBeds(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 3, 0)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)

	body := fmt.Sprintf(`{"pilgrim_id":%d}`, p.ID)
	resp := doRequest(t, http.MethodPost, bedURL(srv, tent.Beds[0].ID, "assign"), body)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodPut, tentURL(srv, tent.ID)+"/capacity", `{"capacity":1}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	updated := decode[adapter.TentResponse](t, resp)
	if updated.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", updated.Capacity)
	}
	if len(updated.Beds) != 1 {
		t.Fatalf("got %d beds, want 1", len(updated.Beds))
	}
	if updated.Beds[0].Status != "Booked" {
		t.Errorf("remaining bed status = %q, want Booked", updated.Beds[0].Status)
	}
}

func TestDeleteTent(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 2, 0)

	resp := doRequest(t, http.MethodDelete, tentURL(srv, tent.ID), "")
	resp.Body.Close()
	expectStatus(t, resp, http.StatusNoContent)

	resp = doRequest(t, http.MethodGet, tentURL(srv, tent.ID), "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Beds ---

func TestAssignAndVacateBed(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 2, 0)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)
	bedID := tent.Beds[0].ID

	resp := doRequest(t, http.MethodPost, bedURL(srv, bedID, "assign"), fmt.Sprintf(`{"pilgrim_id":%d}`, p.ID))
	bed := decode[adapter.BedResponse](t, resp)
	resp.Body.Close()
	if bed.Status != "Booked" {
		t.Fatalf("status after assign = %q, want Booked", bed.Status)
	}

	resp = doRequest(t, http.MethodPost, bedURL(srv, bedID, "vacate"), "")
	bed = decode[adapter.BedResponse](t, resp)
	resp.Body.Close()
	if bed.Status != "Available" {
		t.Fatalf("status after vacate = %q, want Available", bed.Status)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/bookings?status=Cancelled", "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	bookings := decode[[]adapter.BookingResponse](t, resp)
	if len(bookings) != 1 {
		t.Fatalf("got %d cancelled bookings, want 1", len(bookings))
	}
	if bookings[0].PilgrimID != p.ID || bookings[0].BedID != bedID {
		t.Errorf("booking = %+v, want pilgrim %d bed %d", bookings[0], p.ID, bedID)
	}
}

func TestAssignBed_AlreadyBooked(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)
	first := mustRegisterPilgrim(t, srv, "N-1", 0)
	second := mustRegisterPilgrim(t, srv, "N-2", 0)
	bedID := tent.Beds[0].ID

	resp := doRequest(t, http.MethodPost, bedURL(srv, bedID, "assign"), fmt.Sprintf(`{"pilgrim_id":%d}`, first.ID))
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodPost, bedURL(srv, bedID, "assign"), fmt.Sprintf(`{"pilgrim_id":%d}`, second.ID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestAssignBed_UnknownPilgrim(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)

	resp := doRequest(t, http.MethodPost, bedURL(srv, tent.Beds[0].ID, "assign"), `{"pilgrim_id":999}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAssignBed_ByIdentifier(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	tent := mustCreateTent(t, srv, 2, a.ID)
	p := mustRegisterPilgrim(t, srv, "29001011234567", a.ID)
	bedID := tent.Beds[1].ID

	resp := doRequest(t, http.MethodPost, bedURL(srv, bedID, "assign"), `{"identifier":"29001011234567"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	bed := decode[adapter.BedResponse](t, resp)
	if bed.ID != bedID || bed.Status != "Booked" {
		t.Errorf("bed = %+v, want bed %d Booked", bed, bedID)
	}

	resp = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/bookings?pilgrim_id=%d", srv.URL, p.ID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if bookings := decode[[]adapter.BookingResponse](t, resp); len(bookings) != 1 || bookings[0].BedID != bedID {
		t.Errorf("bookings = %+v, want one on bed %d", bookings, bedID)
	}
}

func TestAssignBed_ByIdentifierWithoutGroup(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)
	mustRegisterPilgrim(t, srv, "N-1", 0)

	resp := doRequest(t, http.MethodPost, bedURL(srv, tent.Beds[0].ID, "assign"), `{"identifier":"N-1"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestAssignBed_MissingPilgrim(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)
	url := bedURL(srv, tent.Beds[0].ID, "assign")

	resp := doRequest(t, http.MethodPost, url, `{}`)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, http.MethodPost, url, fmt.Sprintf(`{"pilgrim_id":%d,"identifier":"N-1"}`, p.ID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestSetBedStatus(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)

	resp := doRequest(t, http.MethodPut, bedURL(srv, tent.Beds[0].ID, "status"), `{"status":"Maintenance"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	bed := decode[adapter.BedResponse](t, resp)
	if bed.Status != "Maintenance" {
		t.Errorf("Status = %q, want Maintenance", bed.Status)
	}
}

func TestSetBedStatus_SupervisorMaintenanceForbidden(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	tent := mustCreateTent(t, srv, 1, a.ID)

	resp := doRequestAs(t, supervisorOf(a.ID), http.MethodPut, bedURL(srv, tent.Beds[0].ID, "status"), `{"status":"Maintenance"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestSetBedStatus_BookedRejected(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)

	resp := doRequest(t, http.MethodPut, bedURL(srv, tent.Beds[0].ID, "status"), `{"status":"Booked"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- Bookings ---

func TestBookByAvailability(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	tent := mustCreateTent(t, srv, 2, a.ID)
	p := mustRegisterPilgrim(t, srv, "N-1", a.ID)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/bookings", fmt.Sprintf(`{"identifier":%q}`, p.RegistrationNumber))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	bed := decode[adapter.BedResponse](t, resp)
	if bed.ID != tent.Beds[0].ID {
		t.Errorf("booked bed = %d, want first bed %d", bed.ID, tent.Beds[0].ID)
	}
	if bed.Status != "Booked" {
		t.Errorf("Status = %q, want Booked", bed.Status)
	}
}

func TestBookByAvailability_NoGroup(t *testing.T) {
	srv := newTestServer(t)
	mustCreateTent(t, srv, 1, 0)
	mustRegisterPilgrim(t, srv, "N-1", 0)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/bookings", `{"identifier":"N-1"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestBookByAvailability_AllTentsFull(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	mustCreateTent(t, srv, 1, a.ID)
	mustRegisterPilgrim(t, srv, "N-1", a.ID)
	mustRegisterPilgrim(t, srv, "N-2", a.ID)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/bookings", `{"identifier":"N-1"}`)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/bookings", `{"identifier":"N-2"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestBookByAvailability_UnknownIdentifier(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/bookings", `{"identifier":"nobody"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Pilgrims ---

func TestRegisterPilgrim(t *testing.T) {
	srv := newTestServer(t)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)

	if !strings.HasPrefix(p.RegistrationNumber, "H") || len(p.RegistrationNumber) != 11 {
		t.Errorf("RegistrationNumber = %q, want H + 4-digit year + 6-digit sequence", p.RegistrationNumber)
	}
	if p.Status != "expected" {
		t.Errorf("Status = %q, want expected", p.Status)
	}
}

func TestRegisterPilgrim_DuplicateNationalID(t *testing.T) {
	srv := newTestServer(t)
	mustRegisterPilgrim(t, srv, "N-1", 0)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/pilgrims", `{"national_id":"N-1","first_name":"Other"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestRegisterPilgrim_PilgrimRoleForbidden(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequestAs(t, map[string]string{"X-Caller-Role": "Pilgrim"}, http.MethodPost, srv.URL+"/api/v1/pilgrims", `{"first_name":"Yusuf"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestCallerWithoutRoleIsLeastPrivileged(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 1, 0)

	resp := doRequestAs(t, nil, http.MethodPost, srv.URL+"/api/v1/pilgrims", `{"first_name":"Yusuf"}`)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusForbidden)

	resp = doRequestAs(t, nil, http.MethodPut, bedURL(srv, tent.Beds[0].ID, "status"), `{"status":"Reserved"}`)
	resp.Body.Close()
	expectStatus(t, resp, http.StatusForbidden)

	resp = doRequestAs(t, nil, http.MethodPost, srv.URL+"/api/v1/agencies", `{"name":"Nile","code":"N","max_pilgrims":5}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusForbidden)
}

func TestRegisterPilgrim_GroupFull(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Small", 1)
	mustRegisterPilgrim(t, srv, "N-1", a.ID)

	resp := doRequestAs(t, supervisorOf(a.ID), http.MethodPost, srv.URL+"/api/v1/pilgrims", `{"national_id":"N-2","first_name":"Late"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestGetPilgrim_OtherAgencyHidden(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	b := mustCreateAgency(t, srv, "Group B", 10)
	p := mustRegisterPilgrim(t, srv, "N-1", a.ID)

	url := fmt.Sprintf("%s/api/v1/pilgrims/%d", srv.URL, p.ID)
	resp := doRequestAs(t, supervisorOf(b.ID), http.MethodGet, url, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSetPilgrimStatus(t *testing.T) {
	srv := newTestServer(t)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)

	url := fmt.Sprintf("%s/api/v1/pilgrims/%d/status", srv.URL, p.ID)
	resp := doRequest(t, http.MethodPut, url, `{"status":"arrived"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	updated := decode[adapter.PilgrimResponse](t, resp)
	if updated.Status != "arrived" {
		t.Errorf("Status = %q, want arrived", updated.Status)
	}
}

func TestAssignPilgrimAgency(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)

	url := fmt.Sprintf("%s/api/v1/pilgrims/%d/agency", srv.URL, p.ID)
	resp := doRequest(t, http.MethodPut, url, fmt.Sprintf(`{"agency_id":%d}`, a.ID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	updated := decode[adapter.PilgrimResponse](t, resp)
	if updated.AgencyID == nil || *updated.AgencyID != a.ID {
		t.Errorf("AgencyID = %v, want %d", updated.AgencyID, a.ID)
	}
}

func TestImportPilgrims(t *testing.T) {
	srv := newTestServer(t)

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"national_id", "first_name", "last_name", "age", "gender", "nationality", "phone"},
		{"N-1", "Amina", "Hassan", 34, "female", "EG", "0100"},
		{"N-2", "", "Saleh", 61, "male", "EG", "0101"},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			t.Fatalf("writing row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("writing workbook: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/api/v1/pilgrims/import", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	req.Header.Set("X-Caller-Role", "Admin")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var result struct {
		Imported int                      `json:"imported"`
		Errors   []adapter.ImportRowError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1", result.Imported)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("Errors = %+v, want one error on row 3", result.Errors)
	}
}

// --- Agencies ---

func TestCreateAgency_SupervisorForbidden(t *testing.T) {
	srv := newTestServer(t)
	a := mustCreateAgency(t, srv, "Group A", 10)

	resp := doRequestAs(t, supervisorOf(a.ID), http.MethodPost, srv.URL+"/api/v1/agencies", `{"name":"Mine","max_pilgrims":5}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestGetAgency(t *testing.T) {
	srv := newTestServer(t)
	created := mustCreateAgency(t, srv, "Group A", 10)

	resp := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/agencies/%d", srv.URL, created.ID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	a := decode[adapter.AgencyResponse](t, resp)
	if a.Name != "Group A" || a.MaxPilgrims != 10 {
		t.Errorf("agency = %+v, want Group A with 10 places", a)
	}
	if a.Status != "active" {
		t.Errorf("Status = %q, want active", a.Status)
	}
}

// --- Statistics ---

func TestStatistics(t *testing.T) {
	srv := newTestServer(t)
	tent := mustCreateTent(t, srv, 2, 0)
	p := mustRegisterPilgrim(t, srv, "N-1", 0)
	mustRegisterPilgrim(t, srv, "N-2", 0)

	resp := doRequest(t, http.MethodPost, bedURL(srv, tent.Beds[0].ID, "assign"), fmt.Sprintf(`{"pilgrim_id":%d}`, p.ID))
	resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/statistics/pilgrims", "")
	stats := decode[adapter.StatisticsResponse](t, resp)
	resp.Body.Close()
	if stats.Total != 2 || stats.Expected != 2 || stats.Male != 2 {
		t.Errorf("stats = %+v, want 2 expected male pilgrims", stats)
	}
	if stats.ByAgeGroup["40-49"] != 2 {
		t.Errorf("ByAgeGroup[40-49] = %d, want 2", stats.ByAgeGroup["40-49"])
	}

	resp = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/statistics/beds?tent_id=%d", srv.URL, tent.ID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	occ := decode[adapter.OccupancyResponse](t, resp)
	if occ.Total != 2 || occ.Booked != 1 || occ.Available != 1 {
		t.Errorf("occupancy = %+v, want 2 total, 1 booked, 1 available", occ)
	}
}
