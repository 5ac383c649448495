package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubAPI struct {
	srv     *httptest.Server
	lastPut []byte
	putPath string
}

func newStubAPI(t *testing.T) *stubAPI {
	t.Helper()
	api := &stubAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/index.php/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["4","9"]`)
	})
	mux.HandleFunc("/api/index.php/products/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			fmt.Fprint(w, `"31"`)
		case r.Method == http.MethodPut:
			api.putPath = r.URL.Path
			api.lastPut, _ = io.ReadAll(r.Body)
		case r.URL.Path == "/api/index.php/products/4":
			fmt.Fprint(w, `{"id":"4","ref":"P4","label":"Lamp","barcode":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error/message":"Not Found: Product not found"}`)
		}
	})
	mux.HandleFunc("/api/index.php/thirdparties/email/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"12","name":"ACME","email":"a@acme.test"}`)
	})
	mux.HandleFunc("/api/index.php/thirdparties/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			api.putPath = r.URL.Path
			api.lastPut, _ = io.ReadAll(r.Body)
			return
		}
		fmt.Fprint(w, `{"id":"12","name":"ACME"}`)
	})
	mux.HandleFunc("/api/index.php/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("thirdparty_ids") != "12" {
			t.Errorf("unexpected orders query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `[{"id":"1","ref":"CO1","total_ttc":"12.50","lines":[]}]`)
	})
	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_URL", api.srv.URL+"/api/index.php")
	t.Setenv("API_TOKEN", "env:DOLI_CLI_TOKEN")
	t.Setenv("DOLI_CLI_TOKEN", "cli-secret")
	return api
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	configFile = ""
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestCLIProductGetAndLabel(t *testing.T) {
	newStubAPI(t)

	out, _, err := execute(t, "", "product", "get", "4")
	if err != nil {
		t.Fatalf("product get: %v", err)
	}
	var p map[string]any
	if err := json.Unmarshal([]byte(out), &p); err != nil || p["ref"] != "P4" {
		t.Fatalf("unexpected product output %q (%v)", out, err)
	}

	out, _, err = execute(t, "", "product", "label", "4")
	if err != nil || strings.TrimSpace(out) != "Lamp" {
		t.Fatalf("product label = %q, %v", out, err)
	}

	out, errOut, err := execute(t, "", "product", "barcode", "4")
	if err != nil || out != "" || !strings.Contains(errOut, "no barcode") {
		t.Fatalf("product barcode = %q / %q, %v", out, errOut, err)
	}
}

func TestCLIProductNotFound(t *testing.T) {
	newStubAPI(t)

	_, _, err := execute(t, "", "product", "get", "5")
	if err == nil || err.Error() != "product 5 does not exist" {
		t.Fatalf("expected not-found message, got %v", err)
	}
}

func TestCLIProductListCreateUpdate(t *testing.T) {
	api := newStubAPI(t)

	out, _, err := execute(t, "", "product", "list")
	if err != nil || out != "4\n9\n" {
		t.Fatalf("product list = %q, %v", out, err)
	}

	out, _, err = execute(t, `{"ref":"NEW","label":"New"}`, "product", "create")
	if err != nil || strings.TrimSpace(out) != "31" {
		t.Fatalf("product create = %q, %v", out, err)
	}

	if _, _, err := execute(t, `{"rowid":"4","ref":"P4","label":"Lamp 2"}`, "product", "update"); err != nil {
		t.Fatalf("product update: %v", err)
	}
	if api.putPath != "/api/index.php/products/4" || !bytes.Contains(api.lastPut, []byte(`"Lamp 2"`)) {
		t.Fatalf("unexpected PUT %s %s", api.putPath, api.lastPut)
	}
}

func TestCLICustomerAndOrders(t *testing.T) {
	api := newStubAPI(t)

	out, _, err := execute(t, "", "customer", "get", "--email", "a@acme.test")
	if err != nil || !strings.Contains(out, `"name": "ACME"`) {
		t.Fatalf("customer get --email = %q, %v", out, err)
	}

	if _, _, err := execute(t, "", "customer", "get"); err == nil {
		t.Fatalf("expected error without id or email")
	}

	if _, _, err := execute(t, `{"name":"ACME Corp"}`, "customer", "update", "12"); err != nil {
		t.Fatalf("customer update: %v", err)
	}
	if api.putPath != "/api/index.php/thirdparties/12" || !bytes.Contains(api.lastPut, []byte("ACME Corp")) {
		t.Fatalf("unexpected PUT %s %s", api.putPath, api.lastPut)
	}

	out, _, err = execute(t, "", "orders", "12")
	if err != nil || !strings.Contains(out, `"ref": "CO1"`) {
		t.Fatalf("orders = %q, %v", out, err)
	}
}

func TestCLIRejectsBadID(t *testing.T) {
	newStubAPI(t)
	if _, _, err := execute(t, "", "invoices", "abc"); err == nil {
		t.Fatalf("expected invalid id error")
	}
}

func TestCLICustomerGetChecksIDBeforeConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_URL", "")
	t.Setenv("API_TOKEN", "pass:dolibarr/never-resolved")

	_, _, err := execute(t, "", "customer", "get", "twelve")
	if err == nil || !strings.Contains(err.Error(), `invalid id "twelve"`) {
		t.Fatalf("expected invalid id error before config load, got %v", err)
	}
}
