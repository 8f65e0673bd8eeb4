package main

import "github.com/sakif/medassoc/internal/model"

// boardContact is the association's secretariat; board members publish no
// personal contact.
const boardContact = "Secretaria S.P.O. (91) 3222-1234"

// sampleDoctors is the association board as published on the site.
var sampleDoctors = []model.DoctorInput{
	{
		Name:        "Robson Seiji T. Koyama",
		City:        "Belém",
		Specialty:   "Presidente",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/vp67eno7_WhatsApp%20Image%202026-01-22%20at%2009.35.13.jpeg",
	},
	{
		Name:        "Alexandre Antônio Marques Rosa",
		City:        "Belém",
		Specialty:   "Vice -presidente",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/zqgc9gb2_WhatsApp%20Image%202025-12-23%20at%2013.23.32%20%281%29.jpeg",
	},
	{
		Name:        "Thiago Sopper Boti",
		City:        "Belém",
		Specialty:   "Diretor Financeiro",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/46bj9e0p_WhatsApp%20Image%202025-12-23%20at%2013.23.32%20%283%29.jpeg",
	},
	{
		Name:        "Thaís Sousa Mendes",
		City:        "Belém",
		Specialty:   "Diretoria da SPO",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/gsh1x86w_image.png",
	},
	{
		Name:        "Augusto César Costa de Almeida",
		City:        "Belém",
		Specialty:   "Conselho Fiscal",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/g99n4wa1_WhatsApp%20Image%202025-12-23%20at%2013.24.00.jpeg",
	},
	{
		Name:        "Filipe Moreira de Araújo",
		City:        "Belém",
		Specialty:   "Conselheiro Fiscal Suplente",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/ywr9fmpn_WhatsApp%20Image%202025-12-23%20at%2013.23.32.jpeg",
	},
	{
		Name:        "Etiene França",
		City:        "Belém",
		Specialty:   "Diretora de Marketing SPO",
		ContactInfo: boardContact,
		ImageURL:    "https://customer-assets.emergentagent.com/job_spo-medical/artifacts/k09l61li_teste1.jpeg",
	},
}

// sampleEvents are inserted oldest announcement first, so the list endpoint
// (newest first) shows the congress last.
var sampleEvents = []model.EventInput{
	{
		Title:        "V Congresso Paraense de Oftalmologia",
		Date:         "15-17 de Outubro, 2025",
		Time:         "08:00 - 18:00",
		Location:     "Hangar Centro de Convenções, Belém",
		Description:  "O maior evento da oftalmologia no norte do país. Três dias de imersão científica, workshops práticos e networking com grandes nomes nacionais.",
		ImageURL:     "https://images.unsplash.com/photo-1544531586-fde5298cdd40?auto=format&fit=crop&q=80&w=800",
		Status:       "Inscrições Abertas",
		ExternalLink: "https://example.com/congresso",
	},
	{
		Title:        "Curso Avançado de Retina e Vítreo",
		Date:         "22 de Novembro, 2025",
		Time:         "09:00 - 17:00",
		Location:     "Auditório da S.P.O.",
		Description:  "Curso teórico-prático focado nas novas tecnologias de diagnóstico e tratamento de doenças retinianas. Vagas limitadas.",
		ImageURL:     "https://images.unsplash.com/photo-1576091160550-2187d80a18f7?auto=format&fit=crop&q=80&w=800",
		Status:       "Poucas Vagas",
		ExternalLink: "https://example.com/curso-retina",
	},
	{
		Title:       "Mutirão de Prevenção ao Glaucoma",
		Date:        "05 de Dezembro, 2025",
		Time:        "08:00 - 14:00",
		Location:    "Praça da República",
		Description: "Ação social aberta ao público para aferição de pressão intraocular e triagem de glaucoma. Participe como voluntário.",
		ImageURL:    "https://images.unsplash.com/photo-1584515933487-779824d29309?auto=format&fit=crop&q=80&w=800",
		Status:      "Gratuito",
	},
}
