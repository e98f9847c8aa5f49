package service

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

const (
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeDigits  = "0123456789"

	// The code space is 26^3 * 10^3; collisions are unlikely but real, so
	// generation checks the voucher table and retries
	maxCodeAttempts = 5

	qrSize = 256
)

// voucherService implements VoucherService
type voucherService struct {
	vouchers     repository.VoucherRepository
	publicAppURL string
	logger       *logger.Logger
}

// NewVoucherService creates a new voucher service
func NewVoucherService(vouchers repository.VoucherRepository, publicAppURL string, logger *logger.Logger) VoucherService {
	return &voucherService{
		vouchers:     vouchers,
		publicAppURL: strings.TrimRight(publicAppURL, "/"),
		logger:       logger,
	}
}

// GenerateCode produces a globally unique voucher code: three uppercase
// letters followed by three digits.
func (s *voucherService) GenerateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()

		taken, err := s.vouchers.CodeExists(ctx, code)
		if err != nil {
			return "", errors.NewInternalError("failed to check voucher code", err)
		}
		if !taken {
			return code, nil
		}

		s.logger.WithField("code", code).Warn("Voucher code collision, regenerating")
	}

	return "", errors.NewConflictError("could not generate a unique voucher code")
}

func randomCode() string {
	var b strings.Builder
	b.Grow(6)
	for i := 0; i < 3; i++ {
		b.WriteByte(codeLetters[rand.Intn(len(codeLetters))])
	}
	for i := 0; i < 3; i++ {
		b.WriteByte(codeDigits[rand.Intn(len(codeDigits))])
	}
	return b.String()
}

// RedemptionLink builds the shareable redemption URL. The landing page
// expects a pipe-delimited triple of URL-encoded segments:
// academy name, comma-joined codes, issuance timestamp in unix millis.
func (s *voucherService) RedemptionLink(academyName string, codes []string, issuedAt time.Time) string {
	return fmt.Sprintf("%s/#/public-voucher/%s|%s|%d",
		s.publicAppURL,
		url.QueryEscape(academyName),
		url.QueryEscape(strings.Join(codes, ",")),
		issuedAt.UnixMilli(),
	)
}

// ShareMessage builds the WhatsApp/SMS message sent with the link
func (s *voucherService) ShareMessage(academyName string, codes []string, issuedAt time.Time) string {
	plural := ""
	if len(codes) > 1 {
		plural = "s"
	}

	return fmt.Sprintf(
		"Thank you for being part of BJJVisits!\n\n"+
			"Your academy (%s) has received %d voucher%s:\n%s\n\n"+
			"Follow these steps to redeem:\n"+
			"Step 1: Click on the link below\n"+
			"Step 2: Choose your preferred contact method (WhatsApp or SMS)\n"+
			"Step 3: Send the generated message\n"+
			"Step 4: Wait for our team's response\n\n"+
			"Redemption link:\n%s",
		academyName, len(codes), plural,
		strings.Join(codes, ", "),
		s.RedemptionLink(academyName, codes, issuedAt),
	)
}

// RedemptionQR renders the redemption link as a PNG QR code
func (s *voucherService) RedemptionQR(academyName string, codes []string, issuedAt time.Time) ([]byte, error) {
	link := s.RedemptionLink(academyName, codes, issuedAt)

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.NewInternalError("failed to render QR code", err)
	}
	return png, nil
}

// ListByEvent retrieves an event's vouchers
func (s *voucherService) ListByEvent(ctx context.Context, eventID string) ([]*domain.Voucher, error) {
	vouchers, err := s.vouchers.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list vouchers", err)
	}
	return vouchers, nil
}

// ListByVisit retrieves a visit's vouchers
func (s *voucherService) ListByVisit(ctx context.Context, visitID string) ([]*domain.Voucher, error) {
	vouchers, err := s.vouchers.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list vouchers", err)
	}
	return vouchers, nil
}
