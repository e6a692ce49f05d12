package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func getValidRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Filter: FilterConfig{Alpha: 0.35},
		Detection: DetectionConfig{
			ThresholdCm:  100,
			HysteresisCm: 10,
		},
	}
}

func TestConfigHandler_Get(t *testing.T) {
	configFile := writeTempConfig(t, validConfigYaml)
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest("GET", "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got RuntimeConfig
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, getValidRuntimeConfig(), got)
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	configFile := writeTempConfig(t, validConfigYaml)
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest("DELETE", "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_SetValidation(t *testing.T) {
	tests := []struct {
		name         string
		payload      RuntimeConfig
		wantStatus   int
		wantErrorMsg string
		shouldModify bool
	}{
		{
			name: "Valid Update",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detection.ThresholdCm = 80
				c.Filter.Alpha = 0.5
				return c
			}(),
			wantStatus:   http.StatusOK,
			shouldModify: true,
		},
		{
			name: "Invalid Alpha",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Filter.Alpha = 3
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Alpha",
			shouldModify: false,
		},
		{
			name: "Threshold Beyond Sensor Range",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detection.ThresholdCm = 2000
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "beyond the sensor range",
			shouldModify: false,
		},
		{
			name: "Negative Hysteresis",
			payload: func() RuntimeConfig {
				c := getValidRuntimeConfig()
				c.Detection.HysteresisCm = -5
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "HysteresisCm",
			shouldModify: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeTempConfig(t, validConfigYaml)
			handler := ConfigHandler(configFile)

			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest("POST", "/api/config", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			currentConfig, err := ReadConfig(configFile, false, false)
			assert.NoError(t, err, "config file must stay readable after any request")

			if tt.shouldModify {
				assert.Equal(t, tt.payload.Detection, currentConfig.Detection)
				assert.Equal(t, tt.payload.Filter, currentConfig.Filter)
			} else {
				assert.Equal(t, getValidRuntimeConfig().Detection, currentConfig.Detection, "file should not be updated with invalid values")
				assert.Equal(t, getValidRuntimeConfig().Filter, currentConfig.Filter)
			}
		})
	}
}

// A POST must keep the non-runtime parts of the file intact.
func TestConfigHandler_SetPreservesHardwareSection(t *testing.T) {
	configFile := writeTempConfig(t, validConfigYaml)
	handler := ConfigHandler(configFile)

	payload := getValidRuntimeConfig()
	payload.Detection.ThresholdCm = 42

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/config", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	conf, err := ReadConfig(configFile, false, false)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, conf.Detection.ThresholdCm)
	assert.Equal(t, 27, conf.Sensor.TriggerPin)
	assert.Equal(t, 17, conf.Sensor.EchoPin)
	assert.Equal(t, "./data", conf.Audio.TrackDir)
}
