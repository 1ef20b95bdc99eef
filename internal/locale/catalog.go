package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// entry holds one message in en, fr and pt.
type entry struct {
	key        string
	en, fr, pt string
}

var entries = []entry{
	// Enum labels.
	{"state.pending", "Pending", "En attente", "Pendente"},
	{"state.accepted", "Accepted", "Acceptée", "Aceite"},
	{"state.rejected", "Rejected", "Refusée", "Rejeitada"},
	{"delivery_method.in_person", "In person", "En personne", "Presencial"},
	{"delivery_method.online", "Online", "En ligne", "Online"},

	// Field validation.
	{"can't be blank", "can't be blank", "doit être rempli(e)", "não pode estar em branco"},
	{"is invalid", "is invalid", "n'est pas valide", "não é válido"},
	{"is too long", "is too long", "est trop long", "é demasiado longo"},
	{"must be in the future", "must be in the future", "doit être dans le futur", "tem de ser no futuro"},
	{"already has a pending appointment", "already has a pending appointment", "a déjà un rendez-vous en attente", "já tem uma marcação pendente"},
	{"must be greater than 0", "must be greater than 0", "doit être supérieur à 0", "tem de ser maior que 0"},
	{"has already been taken", "has already been taken", "est déjà utilisé(e)", "já está em uso"},

	// API errors.
	{"appointment not found", "appointment not found", "rendez-vous introuvable", "marcação não encontrada"},
	{"nutritionist service not found", "nutritionist service not found", "service introuvable", "serviço não encontrado"},
	{"nutritionist not found", "nutritionist not found", "nutritionniste introuvable", "nutricionista não encontrado"},
	{"appointment is no longer pending", "appointment is no longer pending", "le rendez-vous n'est plus en attente", "a marcação já não está pendente"},
	{"validation failed", "validation failed", "la validation a échoué", "a validação falhou"},
	{"invalid request body", "invalid request body", "corps de requête invalide", "corpo do pedido inválido"},
	{"invalid id", "invalid id", "identifiant invalide", "identificador inválido"},
	{"internal server error", "internal server error", "erreur interne du serveur", "erro interno do servidor"},

	// E-mail subjects.
	{"mail.confirmation.subject", "Appointment Confirmation - %s with %s", "Confirmation de rendez-vous - %s avec %s", "Confirmação de marcação - %s com %s"},
	{"mail.accepted.subject", "Your appointment with %s has been accepted", "Votre rendez-vous avec %s a été accepté", "A sua marcação com %s foi aceite"},
	{"mail.rejected.subject", "Your appointment request with %s", "Votre demande de rendez-vous avec %s", "O seu pedido de marcação com %s"},

	// E-mail bodies.
	{"mail.greeting", "Hello %s,", "Bonjour %s,", "Olá %s,"},
	{"mail.confirmation.body", "We received your request for %s with %s on %s. You will get an e-mail once it is reviewed.", "Nous avons bien reçu votre demande pour %s avec %s le %s. Vous recevrez un e-mail dès qu'elle sera traitée.", "Recebemos o seu pedido de %s com %s em %s. Receberá um e-mail assim que for analisado."},
	{"mail.accepted.body", "Good news: %s accepted your appointment for %s on %s.", "Bonne nouvelle : %s a accepté votre rendez-vous pour %s le %s.", "Boas notícias: %s aceitou a sua marcação de %s em %s."},
	{"mail.rejected.body", "Unfortunately %s could not accept your request for %s on %s. Please pick another slot.", "Malheureusement %s n'a pas pu accepter votre demande pour %s le %s. Veuillez choisir un autre créneau.", "Infelizmente %s não pôde aceitar o seu pedido de %s em %s. Por favor escolha outro horário."},
	{"mail.location", "Location: %s", "Lieu : %s", "Local: %s"},
	{"mail.price", "Price: %s €", "Prix : %s €", "Preço: %s €"},
	{"mail.signature", "The Nutrium team", "L'équipe Nutrium", "A equipa Nutrium"},
}

func init() {
	for _, e := range entries {
		mustSet(language.English, e.key, e.en)
		mustSet(language.French, e.key, e.fr)
		mustSet(language.Portuguese, e.key, e.pt)
	}
}

func mustSet(t language.Tag, key, msg string) {
	if err := message.SetString(t, key, msg); err != nil {
		panic(err)
	}
}
