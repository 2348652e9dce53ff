package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

// CBRClient получает курсы валют веб-сервиса ЦБ РФ (DailyInfo.GetCursOnDate).
// Курс выражен в рублях за единицу валюты.
type CBRClient struct {
	httpClient *http.Client
	endpoint   string
	logger     *logrus.Logger
}

// NewCBRClient создаёт новый экземпляр клиента для взаимодействия с веб-сервисом ЦБ РФ
func NewCBRClient(endpoint string, timeout time.Duration, logger *logrus.Logger) *CBRClient {
	return &CBRClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     logger,
	}
}

// buildSOAPRequest формирует SOAP-запрос курсов на дату
func buildSOAPRequest(date time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
        <soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
            <soap12:Body>
                <GetCursOnDate xmlns="http://web.cbr.ru/">
                    <On_date>%s</On_date>
                </GetCursOnDate>
            </soap12:Body>
        </soap12:Envelope>`, date.Format("2006-01-02"))
}

// sendRequest отправляет SOAP-запрос в ЦБ РФ и возвращает необработанный ответ
func (c *CBRClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, err
	}

	// Установка заголовков
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return rawBody, nil
}

// parseRatesResponse извлекает курсы из XML-ответа GetCursOnDate
func parseRatesResponse(rawBody []byte) (map[model.Currency]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	elements := doc.FindElements("//ValuteData/ValuteCursOnDate")
	if len(elements) == 0 {
		return nil, errors.New("no exchange rates in response")
	}

	rates := map[model.Currency]float64{model.CurrencyRUB: 1}
	for _, el := range elements {
		code := el.FindElement("./VchCode")
		curs := el.FindElement("./Vcurs")
		nom := el.FindElement("./Vnom")
		if code == nil || curs == nil || nom == nil {
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(curs.Text()), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code.Text(), err)
		}
		units, err := strconv.ParseFloat(strings.TrimSpace(nom.Text()), 64)
		if err != nil || units <= 0 {
			return nil, fmt.Errorf("invalid nominal for %s", code.Text())
		}

		rates[model.Currency(strings.TrimSpace(code.Text()))] = value / units
	}
	return rates, nil
}

// GetRates получает курсы валют ЦБ РФ на дату
func (c *CBRClient) GetRates(ctx context.Context, date time.Time) (map[model.Currency]float64, error) {
	c.logger.WithField("date", date.Format("2006-01-02")).Info("Запрос курсов валют ЦБ РФ")

	rawBody, err := c.sendRequest(ctx, buildSOAPRequest(date))
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при отправке запроса в ЦБ РФ")
		return nil, err
	}

	rates, err := parseRatesResponse(rawBody)
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при разборе XML-ответа от ЦБ РФ")
		return nil, err
	}

	c.logger.WithField("currencies", len(rates)).Debug("Курсы валют успешно получены")
	return rates, nil
}
