package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("Senha123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h == "Senha123!" {
		t.Fatal("hash não pode ser igual à senha")
	}
	if !CheckPassword(h, "Senha123!") {
		t.Fatal("CheckPassword deveria aceitar a senha correta")
	}
	if CheckPassword(h, "senha-errada") {
		t.Fatal("CheckPassword não deveria aceitar senha errada")
	}
}
