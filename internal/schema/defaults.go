package schema

// Default returns a fresh copy of the built-in seed document. It is used to
// seed a brand new deployment and as the source of replacement sections
// during repair. Numbers are float64 so the tree matches JSON-decoded
// documents exactly.
func Default() Document {
	return Document{
		"overview": map[string]any{
			"name":        "DataVault",
			"description": "Secure, Beautiful Data Rooms for Modern Startups",
			"founded":     "2024",
			"location":    "San Francisco, CA",
			"stage":       "Seed",
			"industry":    "SaaS/FinTech",
			"arr":         "$480K ARR",
			"customers":   "127 startups",
			"teamSize":    "8",
			"growthRate":  "45% MoM",
			"mission":     "DataVault revolutionizes how startups share sensitive information with investors. Our platform combines bank-grade security with stunning design, making due diligence faster, more transparent, and delightful for both founders and investors.",
			"vision":      "To become the standard platform for startup fundraising and investor relations, powering every funding round globally",
			"values":      "Security First, Design Excellence, Transparency, Founder Success",
			"goals":       "Reach $2M ARR by Q4 2025, expand to European markets, launch AI-powered due diligence tools",
		},
		"financials": map[string]any{
			"annualRevenue":     "$480K ARR",
			"monthlyBurn":       "$45K",
			"runway":            "18 months",
			"grossMargin":       "92%",
			"revenue":           480000.0,
			"cogs":              38400.0,
			"grossProfit":       441600.0,
			"operatingExpenses": 540000.0,
			"netIncome":         -98400.0,
			"operatingCashFlow": -98400.0,
			"investingCashFlow": -75000.0,
			"financingCashFlow": 1200000.0,
			"netCashFlow":       1026600.0,
			"cashBalance":       810000.0,
		},
		"team": map[string]any{
			"leadership": []any{
				map[string]any{"name": "Alex Rivera", "role": "CEO & Co-Founder", "background": "Ex-DocSend, Stanford MBA, 3x founder"},
				map[string]any{"name": "Maya Chen", "role": "CTO & Co-Founder", "background": "Ex-Stripe, MIT CS, Security Expert"},
				map[string]any{"name": "Jordan Kim", "role": "Head of Product", "background": "Ex-Notion, Design Systems Lead"},
				map[string]any{"name": "Sam Rodriguez", "role": "Head of Growth", "background": "Ex-Airtable, Growth Marketing"},
			},
			"advisors": []any{
				map[string]any{"name": "Russ Heddleston", "background": "CEO of DocSend, Data Room Pioneer"},
				map[string]any{"name": "Melanie Perkins", "background": "CEO of Canva, Design & UX Expert"},
				map[string]any{"name": "Patrick Collison", "background": "CEO of Stripe, Payments & Security"},
				map[string]any{"name": "Naval Ravikant", "background": "AngelList Founder, Startup Ecosystem"},
			},
			"totalEmployees": 8.0,
			"engineering":    4.0,
			"salesMarketing": 2.0,
			"operations":     2.0,
		},
		"market": map[string]any{
			"tam": "$12B+ Global Due Diligence Market",
			"sam": "$3.2B Startup Data Room Market",
			"som": "$180M Addressable in Year 1",
			"competitors": []any{
				map[string]any{"name": "DocSend", "type": "Direct", "description": "Legacy data room, limited design flexibility"},
				map[string]any{"name": "Carta", "type": "Indirect", "description": "Cap table management with basic data rooms"},
				map[string]any{"name": "Foundersuite", "type": "Indirect", "description": "CRM with simple document sharing"},
			},
			"trends": []any{
				"Remote due diligence becoming standard",
				"Investors demanding faster, more transparent processes",
				"Security and compliance requirements increasing",
				"Design and UX becoming competitive differentiators",
			},
		},
		"product": map[string]any{
			"features": []any{
				"Drag-and-drop data room builder",
				"Real-time investor analytics",
				"Granular permission controls",
				"Beautiful, branded experiences",
				"Advanced security & encryption",
				"Mobile-optimized viewing",
				"AI-powered document insights",
				"Investor CRM integration",
			},
			"techStack": []any{
				"React 18", "TypeScript", "Next.js 14", "Supabase", "TailwindCSS",
				"Framer Motion", "AWS S3", "Stripe", "PostHog", "Vercel",
			},
			"roadmap": []any{
				map[string]any{"quarter": "Q1 2025", "features": []any{"AI Document Analysis", "Advanced Analytics", "Mobile App"}, "status": "In Progress"},
				map[string]any{"quarter": "Q2 2025", "features": []any{"White-label Solutions", "API Platform", "Slack Integration"}, "status": "Planned"},
				map[string]any{"quarter": "Q3 2025", "features": []any{"Virtual Data Rooms", "Video Pitching", "Multi-language Support"}, "status": "Planned"},
				map[string]any{"quarter": "Q4 2025", "features": []any{"Blockchain Verification", "Smart Contracts", "Global Expansion"}, "status": "Planned"},
			},
		},
		"legal": map[string]any{
			"entityType":        "Delaware C-Corporation",
			"incorporationDate": "January 2024",
			"ein":               "88-1234567",
			"address":           "2261 Market St, San Francisco, CA 94114",
			"intellectualProperty": []any{
				map[string]any{"type": "Trademark", "name": "DataVault", "status": "Approved"},
				map[string]any{"type": "Patent", "name": "Secure Document Sharing System", "status": "Filed"},
				map[string]any{"type": "Copyright", "name": "DataVault Platform Software", "status": "Approved"},
			},
			"compliance": []any{
				"SOC 2 Type II Certified",
				"GDPR Compliant",
				"CCPA Compliant",
				"ISO 27001 Certified",
				"HIPAA Ready",
			},
		},
		"funding": map[string]any{
			"totalRaised":  "$1.2M",
			"currentRound": "Seed",
			"targetAmount": "$3.5M",
			"useOfFunds":   "Product Development (40%), Sales & Marketing (35%), Team Expansion (25%)",
			"investors": []any{
				map[string]any{"name": "Bessemer Venture Partners", "type": "VC", "amount": "$600K"},
				map[string]any{"name": "First Round Capital", "type": "VC", "amount": "$400K"},
				map[string]any{"name": "Angel Investors", "type": "Angel", "amount": "$200K"},
			},
			"valuation": "$15M Pre-Money",
		},
		"metrics": []any{
			map[string]any{
				"label": "Monthly Recurring Revenue", "value": "$40K", "change": "+45%", "trend": "up",
				"category": "revenue", "description": "Subscription revenue from active customers",
				"chartData": []any{18000.0, 22500.0, 28000.0, 34500.0, 40000.0},
			},
			map[string]any{
				"label": "Active Data Rooms", "value": "347", "change": "+67%", "trend": "up",
				"category": "engagement", "description": "Data rooms created and actively used",
				"chartData": []any{145.0, 180.0, 220.0, 280.0, 347.0},
			},
			map[string]any{
				"label": "Customer Acquisition Cost", "value": "$180", "change": "-23%", "trend": "up",
				"category": "financial", "description": "Cost to acquire new paying customer",
				"chartData": []any{280.0, 250.0, 220.0, 200.0, 180.0},
			},
			map[string]any{
				"label": "Net Revenue Retention", "value": "134%", "change": "+12%", "trend": "up",
				"category": "revenue", "description": "Revenue expansion from existing customers",
				"chartData": []any{115.0, 120.0, 125.0, 130.0, 134.0},
			},
			map[string]any{
				"label": "Customer Satisfaction", "value": "4.8/5", "change": "+0.4", "trend": "up",
				"category": "engagement", "description": "Average customer rating and feedback",
				"chartData": []any{4.2, 4.3, 4.5, 4.7, 4.8},
			},
			map[string]any{
				"label": "Churn Rate", "value": "2.1%", "change": "-1.9%", "trend": "up",
				"category": "financial", "description": "Monthly customer churn percentage",
				"chartData": []any{5.2, 4.1, 3.3, 2.7, 2.1},
			},
			map[string]any{
				"label": "Conversion Rate", "value": "18.4%", "change": "+23%", "trend": "up",
				"category": "revenue", "description": "Trial to paid conversion percentage",
				"chartData": []any{12.8, 14.2, 15.7, 17.1, 18.4},
			},
			map[string]any{
				"label": "Fundraising Success", "value": "89%", "change": "+12%", "trend": "up",
				"category": "engagement", "description": "Customers who successfully raised funding",
				"chartData": []any{76.0, 79.0, 83.0, 86.0, 89.0},
			},
		},
		"documents": []any{
			map[string]any{
				"id": "1", "name": "DataVault Pitch Deck 2024.pdf", "type": "PDF", "size": "4.2 MB",
				"lastModified": "2024-12-15", "category": "company", "accessLevel": "public",
				"status": "active", "url": "https://example.com/datavault-pitch-deck.pdf", "pinned": true,
			},
			map[string]any{
				"id": "2", "name": "Financial Model & Projections.xlsx", "type": "Excel", "size": "2.1 MB",
				"lastModified": "2024-12-12", "category": "financial", "accessLevel": "confidential",
				"status": "active", "url": "https://example.com/financial-model.xlsx", "pinned": false,
			},
			map[string]any{
				"id": "3", "name": "Product Demo & Walkthrough.mp4", "type": "Video", "size": "45.8 MB",
				"lastModified": "2024-12-10", "category": "product", "accessLevel": "public",
				"status": "active", "url": "https://example.com/product-demo.mp4", "pinned": true,
			},
			map[string]any{
				"id": "4", "name": "Market Analysis & Competitive Landscape.pdf", "type": "PDF", "size": "6.3 MB",
				"lastModified": "2024-12-08", "category": "market", "accessLevel": "public",
				"status": "active", "url": "https://example.com/market-analysis.pdf", "pinned": false,
			},
			map[string]any{
				"id": "5", "name": "Technical Architecture & Security.pdf", "type": "PDF", "size": "3.7 MB",
				"lastModified": "2024-12-05", "category": "product", "accessLevel": "restricted",
				"status": "active", "url": "https://example.com/technical-architecture.pdf", "pinned": false,
			},
			map[string]any{
				"id": "6", "name": "Customer Case Studies.pdf", "type": "PDF", "size": "5.1 MB",
				"lastModified": "2024-12-03", "category": "company", "accessLevel": "public",
				"status": "active", "url": "https://example.com/case-studies.pdf", "pinned": true,
			},
			map[string]any{
				"id": "7", "name": "Legal Documents & Compliance.pdf", "type": "PDF", "size": "8.9 MB",
				"lastModified": "2024-12-01", "category": "legal", "accessLevel": "confidential",
				"status": "active", "url": "https://example.com/legal-docs.pdf", "pinned": false,
			},
			map[string]any{
				"id": "8", "name": "Team Bios & Advisory Board.pdf", "type": "PDF", "size": "2.8 MB",
				"lastModified": "2024-11-28", "category": "company", "accessLevel": "public",
				"status": "active", "url": "https://example.com/team-bios.pdf", "pinned": false,
			},
		},
		"users": []any{
			map[string]any{
				"id": "1", "name": "Sarah Chen", "email": "sarah@bessemer.com", "role": "Lead Investor",
				"lastAccess": "2024-12-15", "documentsAccessed": 12.0, "status": "active",
			},
			map[string]any{
				"id": "2", "name": "Michael Torres", "email": "mike@firstround.com", "role": "Partner",
				"lastAccess": "2024-12-14", "documentsAccessed": 8.0, "status": "active",
			},
			map[string]any{
				"id": "3", "name": "Emily Rodriguez", "email": "emily@angelinvestor.com", "role": "Angel Investor",
				"lastAccess": "2024-12-13", "documentsAccessed": 6.0, "status": "active",
			},
			map[string]any{
				"id": "4", "name": "David Kim", "email": "david@legalfirm.com", "role": "Legal Counsel",
				"lastAccess": "2024-12-10", "documentsAccessed": 15.0, "status": "pending",
			},
			map[string]any{
				"id": "5", "name": "Lisa Wang", "email": "lisa@techvc.com", "role": "Investment Associate",
				"lastAccess": "2024-12-09", "documentsAccessed": 4.0, "status": "active",
			},
		},
	}
}
