package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/finhealth/internal/config"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// baseCurrency is the currency CBR quotes every rate against
const baseCurrency = "RUB"

// CBRClient handles integration with Central Bank of Russia
type CBRClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
	now    func() time.Time
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(cfg *config.Config, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
		now: time.Now,
	}
}

// buildSOAPRequest creates a SOAP request for the official rates on a date
func (c *CBRClient) buildSOAPRequest(on time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDateXML xmlns="http://web.cbr.ru/">
					<On_date>%s</On_date>
				</GetCursOnDateXML>
			</soap12:Body>
		</soap12:Envelope>`, on.Format("2006-01-02"))
}

// sendRequest sends SOAP request to CBR
func (c *CBRClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDateXML")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts RUB per one unit of each listed currency
func (c *CBRClient) parseXMLResponse(rawBody []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	elements := doc.FindElements("//ValuteCursOnDate")
	if len(elements) == 0 {
		return nil, fmt.Errorf("no currency rates found in XML")
	}

	rates := map[string]float64{baseCurrency: 1}
	for _, el := range elements {
		code := el.FindElement("./VchCode")
		curs := el.FindElement("./Vcurs")
		nom := el.FindElement("./Vnom")
		if code == nil || curs == nil {
			continue
		}
		rate, err := parseNumber(curs.Text())
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %w", code.Text(), err)
		}
		nominal := 1.0
		if nom != nil {
			if n, err := parseNumber(nom.Text()); err == nil && n > 0 {
				nominal = n
			}
		}
		rates[strings.ToUpper(strings.TrimSpace(code.Text()))] = rate / nominal
	}

	return rates, nil
}

// GetRates retrieves today's official rates, as RUB per one unit of each currency
func (c *CBRClient) GetRates(ctx context.Context) (map[string]float64, error) {
	body, err := c.sendRequest(ctx, c.buildSOAPRequest(c.now()))
	if err != nil {
		return nil, err
	}

	rates, err := c.parseXMLResponse(body)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Retrieved %d CBR currency rates", len(rates))
	return rates, nil
}

// ConversionRate returns how many units of `to` one unit of `from` buys
func (c *CBRClient) ConversionRate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return 1, nil
	}

	rates, err := c.GetRates(ctx)
	if err != nil {
		return 0, err
	}

	fromRate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("no CBR rate for %s", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("no CBR rate for %s", to)
	}
	return fromRate / toRate, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
