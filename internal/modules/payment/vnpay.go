package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vuchungbt/hotel-booking-sub000/internal/config"
)

// The gateway operates on Vietnam time regardless of where the server runs.
var gatewayLocation = time.FixedZone("ICT", 7*60*60)

const gatewayTimeLayout = "20060102150405"

// signParams produces the HMAC-SHA512 signature over the lexicographically
// sorted, percent-encoded key=value pairs. vnp_SecureHash itself is never
// part of the signed data.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// verifySignature checks a callback's vnp_SecureHash against a fresh
// signature over the remaining vnp_* params.
func verifySignature(params map[string]string, secret string) bool {
	got := params["vnp_SecureHash"]
	if got == "" {
		return false
	}
	want := signParams(params, secret)
	return hmac.Equal([]byte(strings.ToUpper(got)), []byte(want))
}

// buildPaymentURL assembles the signed redirect URL for one transaction.
// Amounts go to the gateway in minor units (VND x100).
func buildPaymentURL(cfg config.VNPayConfig, txnRef, orderInfo, clientIP, bankCode, locale string, amount float64, now time.Time) (string, time.Time) {
	createDate := now.In(gatewayLocation)
	expireDate := createDate.Add(cfg.Expiry)

	if locale == "" {
		locale = "vn"
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(minorUnits(amount), 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": createDate.Format(gatewayTimeLayout),
		"vnp_ExpireDate": expireDate.Format(gatewayTimeLayout),
	}
	if bankCode != "" {
		params["vnp_BankCode"] = bankCode
	}

	secureHash := signParams(params, cfg.HashSecret)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Set(k, params[k])
	}
	q.Set("vnp_SecureHash", secureHash)

	return fmt.Sprintf("%s?%s", cfg.BaseURL, q.Encode()), expireDate
}

// flattenQuery collapses url.Values into the single-valued map the
// signature routines work with. The gateway never sends repeated keys.
func flattenQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// callbackSucceeded is the gateway's definition of a successful charge:
// both the response code and the transaction status must be "00".
func callbackSucceeded(params map[string]string) bool {
	return params["vnp_ResponseCode"] == "00" && params["vnp_TransactionStatus"] == "00"
}

// minorUnits converts a monetary amount to the gateway's x100 integer
// representation. Rounding, not truncation: 19.99*100 is 1998.999... in
// float64 and must still encode as 1999.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// callbackAmount converts vnp_Amount back from minor units.
func callbackAmount(params map[string]string) (float64, bool) {
	raw := params["vnp_Amount"]
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(n) / 100, true
}
