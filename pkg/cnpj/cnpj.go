// Package cnpj normaliza y valida identificadores fiscales de persona jurídica (CNPJ).
package cnpj

import (
	"fmt"
	"unicode"
)

// Length cantidad de dígitos de un CNPJ.
const Length = 14

// pesos módulo 11 para el primer y segundo dígito verificador.
var (
	firstWeights  = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Digits devuelve solo los dígitos de taxID ("12.345.678/0001-90" -> "12345678000190").
func Digits(taxID string) string {
	out := make([]byte, 0, len(taxID))
	for _, r := range taxID {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// HasValidLength indica si taxID tiene exactamente 14 dígitos tras quitar la puntuación.
func HasValidLength(taxID string) bool {
	return len(Digits(taxID)) == Length
}

// ValidCheckDigits valida los dos dígitos verificadores. No interviene en el scoring.
func ValidCheckDigits(taxID string) bool {
	d := Digits(taxID)
	if len(d) != Length || allSame(d) {
		return false
	}
	return checkDigit(d[:12], firstWeights[:]) == d[12] && checkDigit(d[:13], secondWeights[:]) == d[13]
}

// Format aplica la máscara XX.XXX.XXX/XXXX-XX; si no tiene 14 dígitos devuelve la entrada.
func Format(taxID string) string {
	d := Digits(taxID)
	if len(d) != Length {
		return taxID
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[0:2], d[2:5], d[5:8], d[8:12], d[12:14])
}

func checkDigit(base string, weights []int) byte {
	var sum int
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + (11 - r))
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
