package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nuvolino/weather-service/internal/models"
	"github.com/nuvolino/weather-service/internal/observability"
)

// PhotonProvider reverse-geocodes against a Komoot Photon instance.
type PhotonProvider struct {
	baseURL string
	client  *http.Client
}

func NewPhotonProvider(baseURL string, timeout time.Duration) *PhotonProvider {
	return &PhotonProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PhotonProvider) Name() string { return "photon" }

type photonResponse struct {
	Features []struct {
		Properties struct {
			City    string `json:"city"`
			County  string `json:"county"`
			State   string `json:"state"`
			Country string `json:"country"`
			Name    string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *PhotonProvider) Reverse(ctx context.Context, coords models.Coordinates) (Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))

	start := time.Now()
	body, err := fetchJSON(ctx, p.client, p.baseURL+"/reverse", params, nil)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ObserveUpstreamCall("photon", status, time.Since(start))
	if err != nil {
		return Place{}, err
	}

	var resp photonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Place{}, fmt.Errorf("photon decode: %w", err)
	}
	if len(resp.Features) == 0 {
		return Place{}, ErrNotFound
	}

	props := resp.Features[0].Properties
	place := Place{
		City:    props.City,
		County:  props.County,
		State:   props.State,
		Country: props.Country,
	}
	// Photon reports settlements via "name" when "city" is absent.
	if place.City == "" {
		place.Town = props.Name
	}
	return place, nil
}
