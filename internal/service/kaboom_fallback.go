package service

import "github.com/stemsi/kodemy-backend/internal/model"

var fallbackKaboomQuestions = []model.KaboomQuestion{
	{Question: "Hewan apa yang memiliki sidik jari paling mirip dengan manusia?", Choices: []string{"Gorila", "Koala", "Simpanse", "Orangutan"}, CorrectAnswer: 1},
	{Question: "Planet manakah yang memiliki hari lebih panjang daripada tahunnya?", Choices: []string{"Merkurius", "Mars", "Venus", "Jupiter"}, CorrectAnswer: 2},
	{Question: "Berapa jumlah jantung yang dimiliki seekor gurita?", Choices: []string{"Satu", "Dua", "Tiga", "Empat"}, CorrectAnswer: 2},
	{Question: "Makanan apa yang tidak pernah basi jika disimpan dengan benar?", Choices: []string{"Madu", "Roti", "Keju", "Susu"}, CorrectAnswer: 0},
	{Question: "Negara manakah yang memiliki jumlah pulau terbanyak di dunia?", Choices: []string{"Indonesia", "Filipina", "Swedia", "Norwegia"}, CorrectAnswer: 2},
	{Question: "Apa warna darah lobster?", Choices: []string{"Merah", "Hijau", "Biru", "Kuning"}, CorrectAnswer: 2},
	{Question: "Hewan apa yang bisa tidur sambil berdiri?", Choices: []string{"Kuda", "Kucing", "Anjing", "Kelinci"}, CorrectAnswer: 0},
	{Question: "Berapa persen kira-kira tubuh manusia dewasa yang terdiri dari air?", Choices: []string{"30%", "45%", "60%", "85%"}, CorrectAnswer: 2},
	{Question: "Menara Eiffel bisa bertambah tinggi pada musim apa?", Choices: []string{"Musim dingin", "Musim panas", "Musim gugur", "Musim semi"}, CorrectAnswer: 1},
	{Question: "Hewan apa yang memiliki lidah berwarna biru kehitaman?", Choices: []string{"Zebra", "Jerapah", "Singa", "Unta"}, CorrectAnswer: 1},
}

// FallbackKaboomQuiz returns a copy of the built-in fun-fact questions.
func FallbackKaboomQuiz() *model.KaboomQuiz {
	qs := make([]model.KaboomQuestion, len(fallbackKaboomQuestions))
	copy(qs, fallbackKaboomQuestions)
	return &model.KaboomQuiz{
		Questions: qs,
		Source:    "fallback",
		Message:   "Quiz generated from fallback data due to API rate limits",
	}
}
