package ledger

import "testing"

func TestRecomputeValue(t *testing.T) {
	price := 2.0
	v := RecomputeValue(5, &price)
	if v == nil || *v != 10 {
		t.Fatalf("5 x 2.00 = 10.00 olmalı, gelen %v", v)
	}

	// Fiyat bilinmiyorsa değer de bilinmiyor (0 değil, nil)
	if v := RecomputeValue(5, nil); v != nil {
		t.Fatalf("fiyatsız üründe değer nil olmalı, gelen %v", *v)
	}

	// Negatif bakiyeye izin var; değer de negatif olur
	neg := RecomputeValue(-3, &price)
	if neg == nil || *neg != -6 {
		t.Fatalf("-3 x 2.00 = -6.00 olmalı, gelen %v", neg)
	}
}
