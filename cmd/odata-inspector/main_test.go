package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/diwise/odata-toolkit/pkg/odata/edm/edmtest"
	"github.com/matryer/is"
)

func TestIntegrateInspectURI(t *testing.T) {
	is := is.New(t)

	handler, err := initialize(context.Background(), newTestConfig(opaModule))
	is.NoErr(err)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	raw := "http://localhost:8080/northwind.svc/Orders(5)/Customer"
	response, responseBody := testRequest(ts.URL+"/odata/v1/inspect?uri="+url.QueryEscape(raw), "Bearer t")

	is.Equal(response.StatusCode, http.StatusOK)
	is.True(bytes.Contains([]byte(responseBody), []byte(`"expectedPayload":"EntityInstance"`)))
}

func TestThatABrokenPolicyFailsInitialization(t *testing.T) {
	is := is.New(t)

	_, err := initialize(context.Background(), newTestConfig("package odata.authz\n\nallow = {"))
	is.True(err != nil)
}

func testRequest(target, authorization string) (*http.Response, string) {
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", authorization)

	resp, _ := http.DefaultClient.Do(req)
	respBody, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}

func newTestConfig(policies string) *AppConfig {
	return &AppConfig{
		servicePort:     "0",
		inspectorConfig: io.NopCloser(bytes.NewBufferString(inspectorConfigFile)),
		modelConfig:     io.NopCloser(bytes.NewBufferString(edmtest.NorthwindYAML)),
		opaConfig:       io.NopCloser(bytes.NewBufferString(policies)),
	}
}

const inspectorConfigFile string = `
service:
  name: northwind
  serviceRoot: http://localhost:8080/northwind.svc
  maxProtocolVersion: "3.0"
batch:
  maxOperations: 100
`

const opaModule string = `
package odata.authz

default allow := false

allow = response {
    response := {
    }
}
`
