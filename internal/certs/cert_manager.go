// Package certs loads extra CA certificates so the client can talk to a self-hosted API
// behind a private certificate authority.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"conduit/internal/utils"
)

var ErrNoCertificates = errors.New("no certificates found")

// CertManager manages the certificate files in a directory.
type CertManager struct {
	certDir string
	log     *utils.Logger
}

func NewCertManager(certDir string, log *utils.Logger) *CertManager {
	if log == nil {
		log = utils.Discard()
	}
	return &CertManager{certDir: certDir, log: log}
}

// LoadCertificates loads every .crt and .pem file under the cert directory. A file may
// hold several PEM blocks.
func (cm *CertManager) LoadCertificates() ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	err := filepath.WalkDir(cm.certDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".crt") || strings.HasSuffix(d.Name(), ".pem") {
			found, err := loadCertificates(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			certs = append(certs, found...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

func loadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("failed to parse certificate PEM")
	}
	return certs, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(time.Now())
}

// Pool returns the system roots plus every unexpired certificate of the directory.
func (cm *CertManager) Pool() (*x509.CertPool, error) {
	certs, err := cm.LoadCertificates()
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	added := 0
	for _, c := range certs {
		if cm.IsExpired(c) {
			cm.log.Warnf("certs: skipping expired certificate %q (expired %s)", c.Subject.CommonName, c.NotAfter.Format(time.RFC3339))
			continue
		}
		pool.AddCert(c)
		added++
	}
	if added == 0 {
		return nil, fmt.Errorf("%s: %w", cm.certDir, ErrNoCertificates)
	}
	cm.log.Infof("certs: trusting %d extra certificate(s) from %s", added, cm.certDir)
	return pool, nil
}

// HTTPClient returns an http.Client trusting the pool.
func (cm *CertManager) HTTPClient() (*http.Client, error) {
	pool, err := cm.Pool()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	return &http.Client{Transport: transport}, nil
}
