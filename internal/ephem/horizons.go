package ephem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"github.com/sony/gobreaker"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/metrics"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 60 * time.Second

	// MemoTTL is how long an identical Horizons query is answered from memory.
	MemoTTL = 10 * time.Minute

	// Points per request. Horizons caps table output and TLIST length, and
	// TLIST travels in the query string.
	maxRangePoints = 20000
	maxListPoints  = 200
)

var (
	errClientStatus = errors.New("horizons client error")
	errServerStatus = errors.New("horizons server error")
)

// unknownTargetMarkers are fragments of Horizons replies that mean the
// COMMAND did not resolve to exactly one body.
var unknownTargetMarkers = []string{
	"No matches found",
	"Unknown target",
	"No such record",
	"Matching small-bodies",
	"Multiple major-bodies",
}

// HorizonsProvider queries JPL Horizons for apparent topocentric positions.
type HorizonsProvider struct {
	client     *http.Client
	baseURL    string
	logger     *logging.Logger
	breaker    *gobreaker.CircuitBreaker
	attempts   uint
	retryDelay time.Duration
	memo       *otter.Cache[string, []horizonsPoint]
}

// HorizonsOption configures a HorizonsProvider.
type HorizonsOption func(*HorizonsProvider)

// WithBaseURL points the provider at a different Horizons endpoint.
func WithBaseURL(u string) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.logger = l
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.attempts = attempts
		p.retryDelay = delay
	}
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(opts ...HorizonsOption) *HorizonsProvider {
	p := &HorizonsProvider{
		baseURL:    HorizonsAPIURL,
		logger:     logging.Discard(),
		attempts:   4,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{Timeout: RequestTimeout}
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "horizons",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			// A rejected query is the caller's problem, not an outage.
			return err == nil || errors.Is(err, errClientStatus)
		},
	})

	p.memo = otter.Must(&otter.Options[string, []horizonsPoint]{
		MaximumSize:      1024,
		ExpiryCalculator: otter.ExpiryWriting[string, []horizonsPoint](MemoTTL),
	})

	return p
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Positions implements Provider.
func (p *HorizonsProvider) Positions(ctx context.Context, body Body, obs astro.Observer, times []time.Time) ([]astro.SkyCoord, error) {
	out := make([]astro.SkyCoord, 0, len(times))
	for _, chunk := range chunkTimes(times) {
		params, err := buildParams(body, obs, chunk)
		if err != nil {
			return nil, err
		}

		points, err := p.query(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("horizons %s: %w", body, err)
		}

		if len(points) == len(chunk.times) {
			for i, pt := range points {
				if d := pt.Time.Sub(chunk.times[i]); d > time.Second || d < -time.Second {
					return nil, fmt.Errorf("horizons %s: point %d at %s, requested %s",
						body, i, pt.Time.Format(time.RFC3339), chunk.times[i].UTC().Format(time.RFC3339))
				}
			}
		}

		// A short or long chunk is passed through as-is; the caller checks
		// that the series lines up with its time axis.
		for _, pt := range points {
			out = append(out, pt.Coord)
		}
	}
	return out, nil
}

// query answers from the memo or performs the HTTP round-trip.
func (p *HorizonsProvider) query(ctx context.Context, params url.Values) ([]horizonsPoint, error) {
	key := params.Encode()
	if points, ok := p.memo.GetIfPresent(key); ok {
		metrics.IncEphemerisRequest("horizons", "memo")
		return points, nil
	}

	body, err := p.fetch(ctx, p.baseURL+"?"+key)
	if err != nil {
		metrics.IncEphemerisRequest("horizons", "error")
		return nil, err
	}

	points, err := parseHorizonsResponse(body)
	if err != nil {
		metrics.IncEphemerisRequest("horizons", "rejected")
		return nil, err
	}

	metrics.IncEphemerisRequest("horizons", "ok")
	p.memo.Set(key, points)
	return points, nil
}

// fetch performs a GET with retries behind the circuit breaker.
func (p *HorizonsProvider) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	start := time.Now()
	var body []byte

	err := retry.Do(
		func() error {
			res, err := p.breaker.Execute(func() (interface{}, error) {
				return p.fetchOnce(ctx, reqURL)
			})
			if err != nil {
				if errors.Is(err, errClientStatus) ||
					errors.Is(err, gobreaker.ErrOpenState) ||
					errors.Is(err, gobreaker.ErrTooManyRequests) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			b, ok := res.([]byte)
			if !ok {
				return retry.Unrecoverable(fmt.Errorf("unexpected result type %T from circuit breaker", res))
			}
			body = b
			return nil
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("horizons request failed, retrying (attempt %d): %v", n+1, err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("horizons request completed in %v (%d bytes)", time.Since(start), len(body))
	return body, nil
}

func (p *HorizonsProvider) fetchOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ls-comets/1.0 (comet visibility planner)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", errServerStatus, resp.StatusCode)
	default:
		// Horizons reports bad queries as a JSON error body with a 4xx status.
		if _, perr := parseHorizonsResponse(body); errors.Is(perr, ErrUnknownBody) {
			return nil, fmt.Errorf("%w: %w", errClientStatus, perr)
		}
		return nil, fmt.Errorf("%w: status %d: %s", errClientStatus, resp.StatusCode, truncate(string(body), 200))
	}
}

// timeChunk is a run of requested times sent in one query.
type timeChunk struct {
	times   []time.Time
	uniform bool
	step    time.Duration
}

// chunkTimes splits times into queries. Whole-minute uniform series become
// START/STOP/STEP ranges, everything else an explicit TLIST.
func chunkTimes(times []time.Time) []timeChunk {
	if len(times) == 0 {
		return nil
	}

	step, uniform := uniformStep(times)
	size := maxListPoints
	if uniform {
		size = maxRangePoints
	}

	var chunks []timeChunk
	for i := 0; i < len(times); i += size {
		end := i + size
		if end > len(times) {
			end = len(times)
		}
		c := timeChunk{times: times[i:end]}
		if uniform && end-i > 1 {
			c.uniform = true
			c.step = step
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func uniformStep(times []time.Time) (time.Duration, bool) {
	if len(times) < 2 {
		return 0, false
	}
	step := times[1].Sub(times[0])
	if step <= 0 || step%time.Minute != 0 {
		return 0, false
	}
	for i := 2; i < len(times); i++ {
		if times[i].Sub(times[i-1]) != step {
			return 0, false
		}
	}
	return step, true
}

// buildParams builds the OBSERVER-table query for one chunk.
func buildParams(body Body, obs astro.Observer, chunk timeChunk) (url.Values, error) {
	// Values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'coord@399'")
	params.Set("COORD_TYPE", "GEODETIC")
	params.Set("SITE_COORD", fmt.Sprintf("'%.4f,%.4f,0'", obs.LonDeg, obs.LatDeg))
	params.Set("QUANTITIES", "'4,20'") // apparent Az/El, observer range
	params.Set("ANG_FORMAT", "DEG")
	params.Set("TIME_DIGITS", "SECONDS")
	params.Set("CSV_FORMAT", "NO")

	switch body.Kind {
	case BodySun:
		params.Set("COMMAND", "'10'")
	case BodyComet:
		if body.Elements != nil {
			setElements(params, *body.Elements)
		} else if body.Designation != "" {
			params.Set("COMMAND", fmt.Sprintf("'DES=%s;CAP;NOFRAG'", body.Designation))
		} else {
			return nil, fmt.Errorf("comet without designation or elements: %w", ErrUnknownBody)
		}
	default:
		return nil, fmt.Errorf("body kind %v: %w", body.Kind, ErrUnknownBody)
	}

	if chunk.uniform {
		params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(chunk.times[0])))
		params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(chunk.times[len(chunk.times)-1])))
		params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(chunk.step)))
	} else {
		jds := make([]string, len(chunk.times))
		for i, t := range chunk.times {
			jds[i] = strconv.FormatFloat(astro.JulianDate(t), 'f', 9, 64)
		}
		params.Set("TLIST_TYPE", "JD")
		params.Set("TIME_TYPE", "UT")
		params.Set("TLIST", fmt.Sprintf("'%s'", strings.Join(jds, " ")))
	}

	return params, nil
}

// setElements sends user-supplied heliocentric ecliptic elements instead of
// asking Horizons to look the comet up.
func setElements(params url.Values, el Elements) {
	epoch := el.Epoch
	if epoch.IsZero() {
		epoch = el.Perihelion
	}
	params.Set("COMMAND", "';'")
	params.Set("ECLIP", "J2000")
	params.Set("EPOCH", strconv.FormatFloat(astro.JulianDate(epoch), 'f', 6, 64))
	params.Set("TP", strconv.FormatFloat(astro.JulianDate(el.Perihelion), 'f', 6, 64))
	params.Set("QR", strconv.FormatFloat(el.PerihelionAU, 'f', -1, 64))
	params.Set("EC", strconv.FormatFloat(el.Eccentricity, 'f', -1, 64))
	params.Set("W", strconv.FormatFloat(el.ArgPeriDeg, 'f', -1, 64))
	params.Set("OM", strconv.FormatFloat(el.AscNodeDeg, 'f', -1, 64))
	params.Set("IN", strconv.FormatFloat(el.InclDeg, 'f', -1, 64))
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// horizonsPoint is one parsed table row.
type horizonsPoint struct {
	Time  time.Time
	Coord astro.SkyCoord
}

// parseHorizonsResponse parses the Horizons JSON response.
func parseHorizonsResponse(body []byte) ([]horizonsPoint, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if resp.Error != "" {
		if isUnknownTarget(resp.Error) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBody, firstLine(resp.Error))
		}
		return nil, fmt.Errorf("horizons error: %s", firstLine(resp.Error))
	}

	points, err := parseEphemerisTable(resp.Result)
	if err != nil {
		if isUnknownTarget(resp.Result) {
			return nil, fmt.Errorf("%w: target not resolved by Horizons", ErrUnknownBody)
		}
		return nil, err
	}
	return points, nil
}

// parseEphemerisTable extracts points between the $$SOE and $$EOE markers.
func parseEphemerisTable(result string) ([]horizonsPoint, error) {
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find ephemeris data markers")
	}

	var points []horizonsPoint
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		point, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		points = append(points, point)
	}

	return points, nil
}

// parseEphemerisLine parses a single ephemeris data line.
// Format for QUANTITIES='4,20' with TIME_DIGITS=SECONDS:
//
//	2020-Jul-10 09:00:00 Am  38.290612  11.406720 0.69772063958669  -26.3744371
//
// Fields: date, time, optional Sun/Moon flags, azimuth, elevation, delta
// (AU), deldot (km/s).
func parseEphemerisLine(line string) (horizonsPoint, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return horizonsPoint{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return horizonsPoint{}, err
	}

	// Flag columns are non-numeric; take numbers in order.
	var nums []float64
	for _, f := range fields[2:] {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, v)
			if len(nums) == 3 {
				break
			}
		}
	}
	if len(nums) < 2 {
		return horizonsPoint{}, fmt.Errorf("could not find Az/El values")
	}

	coord := astro.SkyCoord{AzDeg: nums[0], ElDeg: nums[1]}
	if len(nums) == 3 {
		coord.RangeKm = astro.AUToKm(nums[2])
	}
	return horizonsPoint{Time: t, Coord: coord}, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-Jan-02 15:04:05", "2006-Jan-02 15:04", "2006-Jan-02 15:04:05.000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// formatStepSize formats a whole-minute duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	return fmt.Sprintf("%d m", int(d/time.Minute))
}

func isUnknownTarget(s string) bool {
	for _, m := range unknownTargetMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
