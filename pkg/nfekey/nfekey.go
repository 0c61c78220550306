// Package nfekey valida la chave de acesso de la NF-e (44 dígitos, dígito verificador módulo 11).
package nfekey

import (
	"fmt"
	"unicode"
)

// Length cantidad de dígitos de una chave de acesso.
const Length = 44

// ComputeCheckDigit calcula el dígito verificador para los 43 primeros dígitos.
// Pesos 2..9 de derecha a izquierda; resto 0 o 1 da dígito 0.
func ComputeCheckDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) < Length-1 {
		return 0, fmt.Errorf("nfekey: se requieren %d dígitos, se encontraron %d", Length-1, len(digits))
	}
	digits = digits[:Length-1]
	sum, weight := 0, 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0', nil
	}
	return byte('0' + (11 - remainder)), nil
}

// Validate comprueba longitud y dígito verificador. key no admite separadores.
func Validate(key string) error {
	if len(key) != Length {
		return fmt.Errorf("nfekey: debe tener %d dígitos, se recibieron %d", Length, len(key))
	}
	for _, r := range key {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return fmt.Errorf("nfekey: solo se admiten dígitos")
		}
	}
	expected, err := ComputeCheckDigit(key)
	if err != nil {
		return err
	}
	if key[Length-1] != expected {
		return fmt.Errorf("nfekey: dígito verificador inválido: esperado %c, recibido %c", expected, key[Length-1])
	}
	return nil
}

// Valid atajo booleano de Validate.
func Valid(key string) bool { return Validate(key) == nil }

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
