package guide

// knowledgeBase holds offline recycling tips by language and material.
// "general" is used when no material keyword matches.
var knowledgeBase = map[string]map[string]string{
	"en": {
		"plastic": "Separate plastic items by type (PET, HDPE, etc). Ensure they are clean and dry.\nRemove caps and labels when possible.\nFlatten bottles to save space.\nCheck local recycling guidelines for accepted plastic types.",
		"paper":   "Separate paper into categories: newspapers, cardboard, mixed paper.\nRemove any plastic wrapping or tape.\nFlatten cardboard boxes.\nKeep paper dry and clean.\nShred confidential documents before recycling.",
		"metal":   "Clean metal containers. Separate aluminum from steel cans.\nRemove labels when possible.\nFlatten cans to save space.\nKeep metal items dry to prevent rusting.\nCheck if your local center accepts scrap metal.",
		"glass":   "Sort glass by color: clear, green, and brown.\nRemove caps, lids, and corks.\nRinse containers thoroughly.\nDo not break glass before recycling.\nCheck if your local center accepts window glass or mirrors.",
		"e-waste": "Never mix with regular waste. Take to authorized collection centers.\nRemove batteries before recycling electronics.\nErase personal data from devices.\nCheck manufacturer take-back programs.\nSome retailers offer e-waste collection services.",
		"organic": "Compost fruit and vegetable scraps, coffee grounds, and eggshells.\nAvoid composting meat, dairy, and oily foods.\nMix green materials (food scraps) with brown materials (dry leaves).\nKeep compost moist but not wet.\nTurn compost regularly for faster decomposition.",
		"battery": "Never dispose of batteries in regular trash.\nUse designated battery collection points.\nTape the terminals of lithium batteries before disposal.\nConsider rechargeable batteries to reduce waste.\nSome electronics stores offer battery recycling services.",
		"textile": "Donate clean, wearable clothing to charity.\nRecycle worn-out textiles at specialized collection points.\nSome retailers offer textile recycling programs.\nConsider upcycling old clothes into new items.\nCheck if your local recycling center accepts textiles.",
		"general": "Reduce waste by choosing products with less packaging.\nReuse items whenever possible before recycling.\nRinse containers before recycling.\nFollow local recycling guidelines.\nCompost organic waste to reduce landfill impact.",
	},
	"hi": {
		"plastic": "प्लास्टिक वस्तुओं को प्रकार के अनुसार अलग करें (PET, HDPE, आदि)। सुनिश्चित करें कि वे साफ और सूखे हैं।\nजब संभव हो तो कैप और लेबल हटा दें।\nजगह बचाने के लिए बोतलों को चपटा करें।\nस्वीकृत प्लास्टिक प्रकारों के लिए स्थानीय रीसाइक्लिंग दिशानिर्देश जांचें।",
		"paper":   "कागज को श्रेणियों में अलग करें: अखबार, गत्ता, मिश्रित कागज।\nकिसी भी प्लास्टिक रैपिंग या टेप को हटा दें।\nगत्ते के डिब्बों को चपटा करें।\nकागज को सूखा और साफ रखें।\nरीसाइक्लिंग से पहले गोपनीय दस्तावेजों को श्रेड करें।",
		"metal":   "धातु के कंटेनरों को साफ करें। एल्युमीनियम को स्टील के डिब्बों से अलग करें।\nजब संभव हो तो लेबल हटा दें।\nजगह बचाने के लिए डिब्बों को चपटा करें।\nजंग लगने से रोकने के लिए धातु की वस्तुओं को सूखा रखें।\nजांचें कि क्या आपका स्थानीय केंद्र स्क्रैप मेटल स्वीकार करता है।",
		"glass":   "कांच को रंग के अनुसार अलग करें: साफ, हरा और भूरा।\nकैप, ढक्कन और कॉर्क हटा दें।\nकंटेनरों को अच्छी तरह से धोएं।\nरीसाइक्लिंग से पहले कांच को न तोड़ें।\nजांचें कि क्या आपका स्थानीय केंद्र विंडो ग्लास या मिरर स्वीकार करता है।",
		"e-waste": "नियमित कचरे के साथ कभी न मिलाएं। अधिकृत संग्रह केंद्रों पर ले जाएं।\nइलेक्ट्रॉनिक्स को रीसायकल करने से पहले बैटरी निकाल दें।\nडिवाइस से व्यक्तिगत डेटा मिटा दें।\nनिर्माता टेक-बैक प्रोग्राम की जांच करें।\nकुछ रिटेलर्स ई-वेस्ट कलेक्शन सर्विस ऑफर करते हैं।",
		"organic": "फल और सब्जी के छिलके, कॉफी ग्राउंड्स और अंडे के छिलके को कंपोस्ट करें।\nमांस, डेयरी और तैलीय खाद्य पदार्थों को कंपोस्ट करने से बचें।\nहरी सामग्री (खाद्य अवशेष) को भूरी सामग्री (सूखी पत्तियां) के साथ मिलाएं।\nकंपोस्ट को नम रखें लेकिन गीला न होने दें।\nतेजी से अपघटन के लिए कंपोस्ट को नियमित रूप से पलटें।",
		"general": "कम पैकेजिंग वाले उत्पादों का चयन करके कचरे को कम करें।\nरीसाइक्लिंग से पहले जब भी संभव हो वस्तुओं का पुन: उपयोग करें।\nरीसाइक्लिंग से पहले कंटेनरों को धोएं।\nस्थानीय रीसाइक्लिंग दिशानिर्देशों का पालन करें।\nलैंडफिल प्रभाव को कम करने के लिए जैविक कचरे को कंपोस्ट करें।",
	},
	"mr": {
		"general": "कमी पॅकेजिंग असलेल्या उत्पादनांची निवड करून कचरा कमी करा.\nरिसायकलिंग करण्यापूर्वी शक्य तितक्या वस्तूंचा पुनर्वापर करा.\nरिसायकलिंग करण्यापूर्वी कंटेनर्स धुवा.\nस्थानिक रिसायकलिंग मार्गदर्शक तत्त्वांचे पालन करा.\nलँडफिल प्रभाव कमी करण्यासाठी सेंद्रिय कचरा कंपोस्ट करा.",
	},
	"gu": {
		"general": "ઓછી પેકેજિંગવાળા ઉત્પાદનો પસંદ કરીને કચરો ઘટાડો.\nરિસાયકલિંગ પહેલાં શક્ય હોય ત્યારે વસ્તુઓનો ફરીથી ઉપયોગ કરો.\nરિસાયકલિંગ પહેલાં કન્ટેનરો ધોવો.\nસ્થાનિક રિસાયકલિંગ માર્ગદર્શિકાઓનું પાલન કરો.\nલેન્ડફિલ અસરને ઘટાડવા માટે કાર્બનિક કચરાને ખાતર બનાવો.",
	},
}
