//go:build !secretservice_soft

package crypto

type activeBackend = stdBackend
